package http

import "net/http"

// handleIndex renders the query and anomaly page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>txnsight</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
        form { display: flex; gap: .5rem; margin-bottom: 1rem; }
        input[type=text] { flex: 1; padding: .5rem; }
        table { border-collapse: collapse; width: 100%; margin-top: 1rem; font-size: .9rem; }
        th, td { border: 1px solid #ddd; padding: .35rem .5rem; text-align: left; }
        .alert { color: #b00020; font-weight: 600; }
        .error { color: #b00020; }
    </style>
</head>
<body>
    <h1>txnsight</h1>
    <p>Search transactions in plain language, or run the anomaly checks.</p>

    <form id="query-form" onsubmit="runQuery(event)">
        <input type="text" id="query-text" placeholder="e.g. failed sales at Z Mall last week" autocomplete="off" required>
        <button type="submit">Search</button>
        <button type="button" onclick="runAnomaly()">Run anomaly detection</button>
    </form>

    <div id="output"></div>

    <script>
        const output = document.getElementById('output');

        async function post(path, body) {
            const res = await fetch(path, {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: body ? JSON.stringify(body) : '{}'
            });
            const data = await res.json();
            if (!res.ok) throw new Error(data.error || res.statusText);
            return data;
        }

        function table(rows, columns) {
            if (!rows.length) return '';
            let html = '<table><tr>' + columns.map(c => '<th>' + esc(c) + '</th>').join('') + '</tr>';
            for (const row of rows) {
                html += '<tr>' + columns.map(c => '<td>' + esc(row[c]) + '</td>').join('') + '</tr>';
            }
            return html + '</table>';
        }

        async function runQuery(e) {
            e.preventDefault();
            const text = document.getElementById('query-text').value.trim();
            if (!text) return;
            output.innerHTML = 'Searching...';
            try {
                const data = await post('/query', {query_text: text});
                output.innerHTML = (data.message ? '<p>' + esc(data.message) + '</p>' : '') +
                    table(data.transactions, ['transaction_id', 'transaction_date_iso', 'mall_name',
                        'branch_name', 'transaction_type', 'transaction_status', 'transaction_amount', 'semantic_score']);
            } catch (err) {
                output.innerHTML = '<p class="error">' + esc(err.message) + '</p>';
            }
        }

        async function runAnomaly() {
            output.innerHTML = 'Running...';
            try {
                const data = await post('/run_anomaly_detection');
                let html = '<h2>Workflows</h2>';
                for (const r of data.anomaly_results) {
                    html += '<p><span class="' + (r.status === 'ALERT' ? 'alert' : '') + '">' + esc(r.status) +
                        '</span> ' + esc(r.workflow) + ': ' + esc(r.message) + '</p>';
                }
                html += table(data.unusual_transactions, ['transaction_id', 'mall_name', 'branch_name',
                    'transaction_date_iso', 'transaction_amount', 'transaction_status']);
                output.innerHTML = html;
            } catch (err) {
                output.innerHTML = '<p class="error">' + esc(err.message) + '</p>';
            }
        }

        function esc(v) {
            const div = document.createElement('div');
            div.textContent = v === undefined || v === null ? '' : String(v);
            return div.innerHTML;
        }
    </script>
</body>
</html>`
