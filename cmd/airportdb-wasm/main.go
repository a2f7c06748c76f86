//go:build js && wasm

// Command airportdb-wasm exposes the airport queries to JavaScript as the
// global airportdb object.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/jobrunner/airportdb/internal/adapters/wasmsqlite"
	"github.com/jobrunner/airportdb/internal/application"
	"github.com/jobrunner/airportdb/internal/domain"
)

// throwing wraps a Go function returning {value} or {error} so that the
// error is thrown on the JavaScript side. A Go panic inside a callback
// would abort the module instead.
const throwing = `return function(fn) {
	return function() {
		const r = fn.apply(this, arguments);
		if (r.error !== undefined) throw new Error(r.error);
		return r.value;
	};
}`

type bridge struct {
	db       *application.BrowserDatabase
	airports *application.AirportService
	wrap     js.Value
	logger   *slog.Logger
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db := application.NewBrowserDatabase(wasmsqlite.Driver{}, nil, logger)
	b := &bridge{
		db:       db,
		airports: application.NewAirportService(db, nil, logger),
		wrap:     js.Global().Get("Function").New(throwing).Invoke(),
		logger:   logger,
	}

	js.Global().Set("airportdb", b.exports())
	select {}
}

func (b *bridge) exports() js.Value {
	code := func(find func(context.Context, string) (domain.Airport, bool, error)) js.Value {
		return b.fn(func(args []js.Value) (any, error) {
			a, found, err := find(context.Background(), argString(args, 0))
			if err != nil || !found {
				return nil, err
			}
			return a, nil
		})
	}
	list := func(query func(ctx context.Context, args []js.Value) ([]domain.Airport, error)) js.Value {
		return b.fn(func(args []js.Value) (any, error) {
			airports, err := query(context.Background(), args)
			if err != nil {
				return nil, err
			}
			if airports == nil {
				airports = []domain.Airport{}
			}
			return airports, nil
		})
	}

	obj := js.Global().Get("Object").New()
	obj.Set("initializeBrowserDatabase", js.FuncOf(b.initialize))
	obj.Set("isBrowserDatabaseInitialized", js.FuncOf(func(js.Value, []js.Value) any {
		return b.db.IsInitialized()
	}))
	obj.Set("closeDatabase", b.fn(func([]js.Value) (any, error) {
		return nil, b.db.Close()
	}))

	obj.Set("getAirportByICAO", code(b.airports.GetAirportByICAO))
	obj.Set("getAirportByIATA", code(b.airports.GetAirportByIATA))
	obj.Set("getAirportByFAA", code(b.airports.GetAirportByFAA))
	obj.Set("getAirportsByCountry", list(func(ctx context.Context, args []js.Value) ([]domain.Airport, error) {
		return b.airports.GetAirportsByCountry(ctx, argString(args, 0))
	}))
	obj.Set("getAirportsByState", list(func(ctx context.Context, args []js.Value) ([]domain.Airport, error) {
		return b.airports.GetAirportsByState(ctx, argString(args, 0), argString(args, 1))
	}))
	obj.Set("getAirportsByCity", list(func(ctx context.Context, args []js.Value) ([]domain.Airport, error) {
		return b.airports.GetAirportsByCity(ctx, argString(args, 0))
	}))
	obj.Set("getAirportsByType", list(func(ctx context.Context, args []js.Value) ([]domain.Airport, error) {
		t, err := domain.ParseAirportType(argString(args, 0))
		if err != nil {
			return nil, err
		}
		return b.airports.GetAirportsByType(ctx, t)
	}))
	obj.Set("getAirportsWithTowers", list(func(ctx context.Context, _ []js.Value) ([]domain.Airport, error) {
		return b.airports.GetAirportsWithTowers(ctx)
	}))
	obj.Set("searchAirports", list(func(ctx context.Context, args []js.Value) ([]domain.Airport, error) {
		opts, err := searchOptions(args)
		if err != nil {
			return nil, err
		}
		return b.airports.SearchAirports(ctx, opts)
	}))
	obj.Set("countAirports", b.fn(func([]js.Value) (any, error) {
		return b.airports.CountAirports(context.Background())
	}))

	return obj
}

// fn exports a synchronous call. A nil result becomes undefined.
func (b *bridge) fn(call func(args []js.Value) (any, error)) js.Value {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		out := js.Global().Get("Object").New()
		v, err := call(args)
		if err != nil {
			out.Set("error", err.Error())
			return out
		}
		jv, err := toJS(v)
		if err != nil {
			out.Set("error", err.Error())
			return out
		}
		out.Set("value", jv)
		return out
	})
	return b.wrap.Invoke(f)
}

// initialize returns a Promise. The work runs on its own goroutine because
// fetches block until the event loop delivers the response.
func (b *bridge) initialize(_ js.Value, args []js.Value) any {
	var opts js.Value
	if len(args) > 0 {
		opts = args[0]
	}

	executor := js.FuncOf(func(_ js.Value, p []js.Value) any {
		resolve, reject := p[0], p[1]
		go func() {
			browserOpts, err := browserOptions(opts)
			if err == nil {
				err = b.db.Initialize(context.Background(), browserOpts)
			}
			if err != nil {
				b.logger.Error("browser database initialization failed", "error", err)
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(js.Undefined())
		}()
		return nil
	})
	defer executor.Release()

	return js.Global().Get("Promise").New(executor)
}

// browserOptions reads {databaseUrl, cdnUrl, bundledUrl, wasmUrl}. The
// databaseUrl may also be an ArrayBuffer or Uint8Array holding the file.
func browserOptions(v js.Value) (application.BrowserOptions, error) {
	var opts application.BrowserOptions

	if loc := js.Global().Get("location"); loc.Truthy() {
		opts.BaseURL = loc.Get("href").String()
	}
	if !v.Truthy() {
		return opts, nil
	}
	if v.Type() != js.TypeObject {
		return opts, errors.New("options must be an object")
	}

	switch db := v.Get("databaseUrl"); {
	case db.IsUndefined() || db.IsNull():
	case db.Type() == js.TypeString:
		opts.DatabaseURL = db.String()
	case db.InstanceOf(js.Global().Get("ArrayBuffer")):
		opts.Bytes = copyBytes(js.Global().Get("Uint8Array").New(db))
	case db.InstanceOf(js.Global().Get("Uint8Array")):
		opts.Bytes = copyBytes(db)
	default:
		return opts, errors.New("databaseUrl must be a string, ArrayBuffer or Uint8Array")
	}

	opts.CDNURL = optString(v, "cdnUrl")
	opts.BundledURL = optString(v, "bundledUrl")
	opts.WASMURL = optString(v, "wasmUrl")
	return opts, nil
}

func searchOptions(args []js.Value) (domain.SearchOptions, error) {
	var opts domain.SearchOptions
	if len(args) == 0 || !args[0].Truthy() {
		return opts, nil
	}

	raw := js.Global().Get("JSON").Call("stringify", args[0]).String()
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return opts, &domain.ValidationError{
			Field:      "options",
			Value:      raw,
			Constraint: "search options object",
			Message:    fmt.Sprintf("invalid search options: %v", err),
		}
	}
	return opts, opts.Validate()
}

// toJS converts v through its JSON form so that JavaScript sees the same
// shape as the HTTP API.
func toJS(v any) (js.Value, error) {
	switch v := v.(type) {
	case nil:
		return js.Undefined(), nil
	case int:
		return js.ValueOf(v), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return js.Undefined(), fmt.Errorf("encoding result: %w", err)
	}
	return js.Global().Get("JSON").Call("parse", string(data)), nil
}

func copyBytes(arr js.Value) []byte {
	data := make([]byte, arr.Get("byteLength").Int())
	js.CopyBytesToGo(data, arr)
	return data
}

func argString(args []js.Value, i int) string {
	if i >= len(args) || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

func optString(v js.Value, key string) string {
	if s := v.Get(key); s.Type() == js.TypeString {
		return s.String()
	}
	return ""
}
