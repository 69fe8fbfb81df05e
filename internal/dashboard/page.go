package dashboard

import (
	"html/template"
	"net/http"
)

// handleIndex serves the dashboard HTML page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <title>Botboard - Trading Sessions</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1400px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #1d976c 0%, #2f80ed 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; font-size: 2.2em; text-align: center; }
        .status-bar { display: flex; justify-content: space-between; align-items: center; background: white; padding: 15px; border-radius: 8px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .status-indicator { display: flex; align-items: center; font-weight: bold; }
        .status-dot { width: 12px; height: 12px; border-radius: 50%; margin-right: 8px; }
        .status-active { background-color: #28a745; }
        .status-danger { background-color: #dc3545; }
        .stale-badge { display: none; padding: 2px 10px; border-radius: 4px; background-color: #ffc107; color: #333; font-size: 0.85em; font-weight: bold; }
        .window-bar { display: flex; gap: 8px; margin-bottom: 20px; }
        .window-btn { padding: 8px 18px; border: 1px solid #ccc; border-radius: 6px; background: white; cursor: pointer; font-weight: 600; }
        .window-btn.active { background: #2f80ed; color: white; border-color: #2f80ed; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); margin-bottom: 20px; }
        .card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .chart-frame { width: 100%; }
        .data-table { width: 100%; border-collapse: collapse; margin-top: 10px; }
        .data-table th, .data-table td { text-align: left; padding: 8px; border-bottom: 1px solid #eee; }
        .data-table th { background-color: #f8f9fa; font-weight: 600; }
        .value-positive { color: #28a745; }
        .value-negative { color: #dc3545; }
        .submit-form { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 10px; align-items: end; }
        .submit-form label { display: block; font-size: 0.85em; color: #666; margin-bottom: 4px; }
        .submit-form input, .submit-form select { width: 100%; padding: 8px; border: 1px solid #ccc; border-radius: 6px; box-sizing: border-box; }
        .submit-btn { padding: 10px 18px; border: none; border-radius: 6px; background: #1d976c; color: white; font-weight: 600; cursor: pointer; }
        .form-status { margin-top: 10px; font-size: 0.9em; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Botboard</h1>
        </div>

        <div class="status-bar">
            <div class="status-indicator">
                <div class="status-dot status-danger" id="conn-status"></div>
                <span id="conn-status-text">Connecting...</span>
            </div>
            <span class="stale-badge" id="stale-badge">STALE DATA</span>
            <div class="status-indicator">
                <span id="last-update">Last Updated: --</span>
            </div>
        </div>

        <div class="window-bar">
            <button class="window-btn" id="win-day" onclick="setWindow('day')">Day</button>
            <button class="window-btn" id="win-week" onclick="setWindow('week')">Week</button>
            <button class="window-btn" id="win-month" onclick="setWindow('month')">Month</button>
            <button class="window-btn" id="win-all" onclick="setWindow('all')">All</button>
        </div>

        <div class="card">
            <h3>Equity</h3>
            <img class="chart-frame" id="equity-chart" src="/chart/equity.png" alt="equity chart">
        </div>

        <div class="card">
            <h3>Sessions</h3>
            <table class="data-table">
                <thead>
                    <tr><th>Session</th><th>Last</th><th>Min</th><th>Max</th><th>Change</th></tr>
                </thead>
                <tbody id="summaries-body">
                    <tr><td colspan="5" style="text-align: center; color: #666;">No data yet</td></tr>
                </tbody>
            </table>
        </div>

        <div class="card">
            <h3>Open Positions</h3>
            <table class="data-table">
                <thead>
                    <tr><th>Session</th><th>Symbol</th><th>Side</th><th>Qty</th><th>Entry</th><th>Mark</th><th>PnL</th></tr>
                </thead>
                <tbody id="positions-body">
                    <tr><td colspan="7" style="text-align: center; color: #666;">No open positions</td></tr>
                </tbody>
            </table>
        </div>

        <div class="card">
            <h3>Backtests</h3>
            <table class="data-table">
                <thead>
                    <tr><th>Strategy</th><th>Symbol</th><th>Final Balance</th><th>Win Rate</th><th>Status</th><th>Chart</th></tr>
                </thead>
                <tbody id="backtests-body">
                    <tr><td colspan="6" style="text-align: center; color: #666;">No runs yet</td></tr>
                </tbody>
            </table>
        </div>

        <div class="card">
            <h3>Run Backtest</h3>
            <form id="backtest-form" class="submit-form">
                <div>
                    <label for="bt-strategy">Strategy</label>
                    <input id="bt-strategy" name="strategy" placeholder="grid" required>
                </div>
                <div>
                    <label for="bt-symbol">Symbol</label>
                    <input id="bt-symbol" name="symbol" placeholder="BTCUSDT" required>
                </div>
                <div>
                    <label for="bt-from">From</label>
                    <input id="bt-from" name="from" type="date">
                </div>
                <div>
                    <label for="bt-to">To</label>
                    <input id="bt-to" name="to" type="date">
                </div>
                <div>
                    <label for="bt-balance">Initial Balance</label>
                    <input id="bt-balance" name="initialBalance" type="number" step="any" min="0">
                </div>
                <div>
                    <label for="bt-leverage">Leverage</label>
                    <input id="bt-leverage" name="leverage" type="number" min="0" step="1">
                </div>
                <div>
                    <button class="submit-btn" type="submit">Submit</button>
                </div>
            </form>
            <div class="form-status" id="form-status"></div>
        </div>
    </div>

    <script>
        let currentWindow = 'day';

        function connect() {
            const ws = new WebSocket('ws://' + location.host + '/ws');

            ws.onmessage = function(event) {
                render(JSON.parse(event.data));
            };

            ws.onopen = function() {
                document.getElementById('conn-status').className = 'status-dot status-active';
                document.getElementById('conn-status-text').textContent = 'Live';
            };

            ws.onclose = function() {
                document.getElementById('conn-status').className = 'status-dot status-danger';
                document.getElementById('conn-status-text').textContent = 'Disconnected';
                setTimeout(connect, 5000);
            };
        }
        connect();

        function setWindow(win) {
            fetch('/api/window', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ window: win })
            })
            .then(resp => resp.json())
            .then(render)
            .catch(err => console.log('window change failed', err));
        }

        function render(data) {
            currentWindow = data.window;
            document.getElementById('last-update').textContent = 'Last Updated: ' + new Date(data.timestamp).toLocaleTimeString();
            document.getElementById('stale-badge').style.display = data.stale ? 'inline-block' : 'none';

            const wins = ['day', 'week', 'month', 'all'];
            for (const w of wins) {
                document.getElementById('win-' + w).className = 'window-btn' + (w === data.window ? ' active' : '');
            }

            document.getElementById('equity-chart').src = '/chart/equity.png?window=' + data.window + '&t=' + Date.now();

            renderSummaries(data);
            renderPositions(data.positions);
            renderBacktests(data.backtests);
        }

        function renderSummaries(data) {
            const tbody = document.getElementById('summaries-body');
            tbody.innerHTML = '';

            if (!data.summaries || data.summaries.length === 0) {
                tbody.innerHTML = '<tr><td colspan="5" style="text-align: center; color: #666;">No data yet</td></tr>';
                return;
            }

            for (const s of data.summaries) {
                const name = (data.names && data.names[s.session]) || s.session;
                const cls = s.changePct >= 0 ? 'value-positive' : 'value-negative';
                const row = document.createElement('tr');
                row.innerHTML = '<td>' + name + '</td>' +
                    '<td>' + s.last.toFixed(2) + '</td>' +
                    '<td>' + s.min.toFixed(2) + '</td>' +
                    '<td>' + s.max.toFixed(2) + '</td>' +
                    '<td class="' + cls + '">' + s.changePct.toFixed(2) + '%</td>';
                tbody.appendChild(row);
            }
        }

        function renderPositions(positions) {
            const tbody = document.getElementById('positions-body');
            tbody.innerHTML = '';

            if (!positions || positions.length === 0) {
                tbody.innerHTML = '<tr><td colspan="7" style="text-align: center; color: #666;">No open positions</td></tr>';
                return;
            }

            for (const p of positions) {
                const cls = p.pnl >= 0 ? 'value-positive' : 'value-negative';
                const row = document.createElement('tr');
                row.innerHTML = '<td>' + p.session + '</td>' +
                    '<td>' + p.symbol + '</td>' +
                    '<td>' + p.side + '</td>' +
                    '<td>' + p.qty.toFixed(4) + '</td>' +
                    '<td>' + p.entryPrice.toFixed(2) + '</td>' +
                    '<td>' + p.markPrice.toFixed(2) + '</td>' +
                    '<td class="' + cls + '">' + p.pnl.toFixed(2) + '</td>';
                tbody.appendChild(row);
            }
        }

        function renderBacktests(backtests) {
            const tbody = document.getElementById('backtests-body');
            tbody.innerHTML = '';

            if (!backtests || backtests.length === 0) {
                tbody.innerHTML = '<tr><td colspan="6" style="text-align: center; color: #666;">No runs yet</td></tr>';
                return;
            }

            for (const b of backtests) {
                const row = document.createElement('tr');
                row.innerHTML = '<td>' + b.strategy + '</td>' +
                    '<td>' + b.symbol + '</td>' +
                    '<td>' + b.finalBalance.toFixed(2) + '</td>' +
                    '<td>' + (b.winRate * 100).toFixed(1) + '%</td>' +
                    '<td>' + b.status + '</td>' +
                    '<td><a href="/chart/backtests/' + b.id + '.png" target="_blank">PNG</a></td>';
                tbody.appendChild(row);
            }
        }

        document.getElementById('backtest-form').addEventListener('submit', function(event) {
            event.preventDefault();
            const status = document.getElementById('form-status');
            status.textContent = 'Submitting...';

            fetch('/api/backtests', {
                method: 'POST',
                headers: { 'Accept': 'application/json' },
                body: new URLSearchParams(new FormData(event.target))
            })
            .then(resp => {
                if (!resp.ok) {
                    return resp.text().then(msg => { throw new Error(msg); });
                }
                return resp.json();
            })
            .then(ack => {
                status.textContent = 'Submitted run ' + ack.id;
                event.target.reset();
            })
            .catch(err => {
                status.textContent = 'Submission failed: ' + err.message;
            });
        });
    </script>
</body>
</html>
	`

	t, err := template.New("dashboard").Parse(tmpl)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	t.Execute(w, nil)
}
