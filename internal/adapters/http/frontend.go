package http

import (
	"net/http"
)

// frontendHTML is the embedded airport lookup page.
// Mobile-first, responsive design with pure CSS.
const frontendHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Airport DB - Lookup</title>
    <style>
        :root {
            --primary: #2563eb;
            --primary-dark: #1d4ed8;
            --error: #dc2626;
            --bg: #f8fafc;
            --card: #ffffff;
            --text: #1e293b;
            --text-muted: #64748b;
            --border: #e2e8f0;
            --radius: 8px;
            --shadow: 0 1px 3px rgba(0,0,0,0.1);
        }

        * {
            box-sizing: border-box;
            margin: 0;
            padding: 0;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.5;
            padding: 1rem;
        }

        .container {
            max-width: 720px;
            margin: 0 auto;
        }

        h1 {
            font-size: 1.5rem;
            margin-bottom: 1rem;
        }

        .card {
            background: var(--card);
            border: 1px solid var(--border);
            border-radius: var(--radius);
            box-shadow: var(--shadow);
            padding: 1rem;
            margin-bottom: 1rem;
        }

        form {
            display: flex;
            gap: 0.5rem;
            flex-wrap: wrap;
        }

        select, input {
            padding: 0.5rem;
            border: 1px solid var(--border);
            border-radius: var(--radius);
            font-size: 1rem;
        }

        input {
            flex: 1;
            min-width: 8rem;
            text-transform: uppercase;
        }

        button {
            padding: 0.5rem 1rem;
            background: var(--primary);
            color: #fff;
            border: none;
            border-radius: var(--radius);
            font-size: 1rem;
            cursor: pointer;
        }

        button:hover { background: var(--primary-dark); }
        button:disabled { opacity: 0.6; cursor: wait; }

        .error {
            display: none;
            color: var(--error);
            margin-top: 0.5rem;
        }

        .error.active { display: block; }

        .muted { color: var(--text-muted); font-size: 0.875rem; }

        table {
            width: 100%;
            border-collapse: collapse;
            margin-top: 0.5rem;
        }

        th, td {
            text-align: left;
            padding: 0.25rem 0.5rem;
            border-bottom: 1px solid var(--border);
            vertical-align: top;
        }

        th { width: 40%; color: var(--text-muted); font-weight: normal; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Airport lookup</h1>

        <div class="card">
            <form id="lookup">
                <select id="kind" aria-label="Code type">
                    <option value="icao">ICAO</option>
                    <option value="iata">IATA</option>
                    <option value="faa">FAA</option>
                </select>
                <input id="code" placeholder="KLAX" required maxlength="8" autocomplete="off">
                <button type="submit" id="submit">Look up</button>
            </form>
            <div class="error" id="error"></div>
            <p class="muted" id="stats"></p>
        </div>

        <div class="card" id="result" hidden></div>
    </div>

    <script>
        (function() {
            const form = document.getElementById('lookup');
            const kind = document.getElementById('kind');
            const code = document.getElementById('code');
            const submit = document.getElementById('submit');
            const error = document.getElementById('error');
            const result = document.getElementById('result');

            fetch('api/v1/stats')
                .then(function(r) { return r.ok ? r.json() : null; })
                .then(function(data) {
                    if (data) {
                        document.getElementById('stats').textContent = data.airports + ' airports loaded';
                    }
                })
                .catch(function() {});

            form.addEventListener('submit', async function(e) {
                e.preventDefault();
                error.classList.remove('active');
                result.hidden = true;
                submit.disabled = true;

                const value = code.value.trim().toUpperCase();
                let path = 'api/v1/airports/';
                if (kind.value !== 'icao') {
                    path += kind.value + '/';
                }

                try {
                    const response = await fetch(path + encodeURIComponent(value));
                    const data = await response.json();
                    if (!response.ok) {
                        throw new Error(data.message || data.error || 'Request failed');
                    }
                    render(data);
                } catch (err) {
                    error.textContent = err.message;
                    error.classList.add('active');
                } finally {
                    submit.disabled = false;
                }
            });

            function render(airport) {
                const id = airport.identity;
                const loc = airport.location;
                const infra = airport.infrastructure;
                const rows = [
                    ['Name', id.name],
                    ['ICAO', id.icao],
                    ['IATA', id.iata],
                    ['FAA', id.faa],
                    ['Type', id.type],
                    ['Location', [loc.city, loc.state, loc.country].filter(Boolean).join(', ')],
                    ['Coordinates', loc.latitude.toFixed(4) + ', ' + loc.longitude.toFixed(4)],
                    ['Elevation', loc.elevationFt + ' ft'],
                    ['Timezone', loc.timezone],
                    ['Tower', infra.hasTower ? 'yes' : 'no'],
                    ['Runways', (infra.runways || []).map(function(rw) {
                        return rw.id + ' (' + rw.lengthFt + ' ft, ' + rw.surface + ')';
                    }).join('; ')],
                    ['Fuel', (infra.fuelTypes || []).join(', ')]
                ];

                let html = '<table>';
                rows.forEach(function(row) {
                    if (row[1] === undefined || row[1] === null || row[1] === '') return;
                    html += '<tr><th>' + escapeHtml(row[0]) + '</th><td>' + escapeHtml(String(row[1])) + '</td></tr>';
                });
                html += '</table>';

                result.innerHTML = html;
                result.hidden = false;
            }

            function escapeHtml(str) {
                if (!str) return '';
                return String(str)
                    .replace(/&/g, '&amp;')
                    .replace(/</g, '&lt;')
                    .replace(/>/g, '&gt;')
                    .replace(/"/g, '&quot;')
                    .replace(/'/g, '&#39;');
            }
        })();
    </script>
</body>
</html>`

// handleFrontend serves the airport lookup page.
func (s *Server) handleFrontend(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(frontendHTML))
}
