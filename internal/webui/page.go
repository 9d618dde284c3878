package webui

// indexHTML is the single-page viewer. It talks the same websocket
// protocol as dispatchPointer and redraws from server events; the
// circle is mirrored locally during a gesture and resynced from
// /api/state once the mask settles.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>k-space explorer</title>
    <style>
        :root {
            --bg-primary: #0f172a;
            --bg-secondary: #1e293b;
            --text-primary: #f8fafc;
            --text-secondary: #cbd5e1;
            --accent: #3b82f6;
            --success: #10b981;
            --error: #ef4444;
            --border: #475569;
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
        }

        .header {
            background: var(--bg-secondary);
            padding: 1rem 2rem;
            border-bottom: 1px solid var(--border);
            display: flex;
            justify-content: space-between;
            align-items: center;
        }

        .logo { font-size: 1.2rem; font-weight: bold; color: var(--accent); }

        .status { font-size: 0.9rem; color: var(--text-secondary); }
        .status.connected { color: var(--success); }
        .status.disconnected { color: var(--error); }

        .panels {
            display: flex;
            flex-wrap: wrap;
            gap: 1rem;
            padding: 1.5rem;
        }

        .card {
            background: var(--bg-secondary);
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 1rem;
        }

        .card h3 {
            font-size: 1rem;
            margin-bottom: 0.75rem;
            color: var(--text-secondary);
        }

        canvas, img.view {
            display: block;
            background: #000;
            border: 1px solid var(--border);
            image-rendering: pixelated;
        }

        canvas { cursor: crosshair; touch-action: none; }

        .bar {
            padding: 0 1.5rem 1.5rem;
            display: flex;
            gap: 2rem;
            color: var(--text-secondary);
            font-size: 0.9rem;
        }

        .bar b { color: var(--accent); }
    </style>
</head>
<body>
    <header class="header">
        <div class="logo">k-space explorer</div>
        <div>
            <input type="file" id="file" accept="image/png,image/jpeg,image/gif">
            <span class="status disconnected" id="status">connecting</span>
        </div>
    </header>

    <main class="panels">
        <div class="card">
            <h3>k-space (drag circle, pull handle)</h3>
            <canvas id="kspace" width="256" height="256"></canvas>
        </div>
        <div class="card">
            <h3>reconstruction</h3>
            <img class="view" id="recon" width="256" height="256" alt="">
        </div>
    </main>

    <div class="bar">
        <span>image <b id="name">none</b></span>
        <span>mask <b id="mask">-</b></span>
        <span>retained <b id="retained">-</b></span>
        <span>seq <b id="seq">0</b></span>
    </div>

    <script>
        var canvas = document.getElementById('kspace');
        var ctx = canvas.getContext('2d');
        var kimg = new Image();
        var circle = null;
        var gesture = null;
        var ws = null;

        function connect() {
            var proto = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(proto + '//' + window.location.host + '/ws');

            ws.onopen = function() {
                setStatus('connected');
            };
            ws.onclose = function() {
                setStatus('disconnected');
                setTimeout(connect, 2000);
            };
            ws.onmessage = function(e) {
                handleEvent(JSON.parse(e.data));
            };
        }

        function setStatus(s) {
            var el = document.getElementById('status');
            el.textContent = s;
            el.className = 'status ' + s;
        }

        function handleEvent(ev) {
            if (ev.type === 'loaded') {
                canvas.width = ev.cols;
                canvas.height = ev.rows;
                kimg = new Image();
                kimg.onload = draw;
                kimg.src = ev.image;
                circle = ev.display;
                document.getElementById('name').textContent = ev.name;
                setMaskLabel(ev.mask);
                send({type: 'resize', width: canvas.width, height: canvas.height});
                resync();
            } else if (ev.type === 'recon') {
                var recon = document.getElementById('recon');
                recon.width = canvas.width;
                recon.height = canvas.height;
                recon.src = ev.image;
                document.getElementById('seq').textContent = ev.seq;
                document.getElementById('retained').textContent =
                    (100 * ev.retained).toFixed(1) + '%';
                if (ev.mask) { setMaskLabel(ev.mask); }
            } else if (ev.type === 'preview') {
                if (circle) { circle.radius = ev.radius; draw(); }
            } else if (ev.type === 'settled') {
                resync();
            }
        }

        function setMaskLabel(m) {
            if (!m) { return; }
            document.getElementById('mask').textContent =
                '(' + m.cx + ', ' + m.cy + ') r=' + m.radius;
        }

        function resync() {
            fetch('/api/state').then(function(r) { return r.json(); }).then(function(st) {
                if (st.loaded) {
                    circle = st.display;
                    setMaskLabel(st.mask);
                    draw();
                }
            });
        }

        function draw() {
            ctx.clearRect(0, 0, canvas.width, canvas.height);
            if (kimg.complete && kimg.width > 0) {
                ctx.drawImage(kimg, 0, 0);
            }
            if (!circle) { return; }
            ctx.strokeStyle = '#3b82f6';
            ctx.lineWidth = 1.5;
            ctx.beginPath();
            ctx.arc(circle.cx, circle.cy, circle.radius, 0, 2 * Math.PI);
            ctx.stroke();
            var k = circle.radius / Math.SQRT2;
            ctx.fillStyle = '#10b981';
            ctx.beginPath();
            ctx.arc(circle.cx + k, circle.cy + k, 4, 0, 2 * Math.PI);
            ctx.fill();
        }

        function send(msg) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify(msg));
            }
        }

        function pos(e) {
            var r = canvas.getBoundingClientRect();
            return {x: e.clientX - r.left, y: e.clientY - r.top};
        }

        canvas.addEventListener('pointerdown', function(e) {
            if (!circle) { return; }
            var p = pos(e);
            canvas.setPointerCapture(e.pointerId);
            var k = circle.radius / Math.SQRT2;
            var hd = Math.hypot(p.x - circle.cx - k, p.y - circle.cy - k);
            var cd = Math.hypot(p.x - circle.cx, p.y - circle.cy);
            if (hd <= 10) {
                gesture = 'resize';
            } else if (cd <= circle.radius) {
                gesture = 'drag';
                circle.cx = p.x;
                circle.cy = p.y;
            } else {
                return;
            }
            send({type: 'down', x: p.x, y: p.y});
            draw();
        });

        canvas.addEventListener('pointermove', function(e) {
            if (!gesture || !circle) { return; }
            var p = pos(e);
            if (gesture === 'drag') {
                circle.cx = p.x;
                circle.cy = p.y;
            } else {
                circle.radius = Math.max(5, Math.hypot(p.x - circle.cx, p.y - circle.cy));
            }
            send({type: 'move', x: p.x, y: p.y});
            draw();
        });

        function endGesture() {
            if (!gesture) { return; }
            gesture = null;
            send({type: 'up'});
        }

        canvas.addEventListener('pointerup', endGesture);
        canvas.addEventListener('pointercancel', function() {
            if (!gesture) { return; }
            gesture = null;
            send({type: 'cancel'});
        });

        document.getElementById('file').addEventListener('change', function(e) {
            var f = e.target.files[0];
            if (!f) { return; }
            fetch('/api/image?name=' + encodeURIComponent(f.name), {
                method: 'POST',
                body: f
            });
        });

        connect();
        resync();
    </script>
</body>
</html>
`
