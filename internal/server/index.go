package server

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>vrec</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@picocss/pico@2/css/pico.min.css">
</head>
<body>
    <main class="container">
        <h1>🎙️ vrec</h1>
        <p id="status">idle</p>
        <h2 id="elapsed">00:00</h2>
        <button id="toggle">Record</button>
        <h3>Recordings</h3>
        <ul id="recordings"></ul>
    </main>
    <script>
        const $ = (id) => document.getElementById(id);

        async function refresh() {
            const res = await fetch('/status');
            const data = await res.json();
            const view = data.view || {};
            $('status').textContent = view.status || data.status.state;
            $('elapsed').textContent = view.elapsed || data.status.elapsed;
            $('toggle').textContent = view.button || 'Record';
            $('toggle').disabled = view.button_enabled === false;
        }

        async function loadRecordings() {
            const res = await fetch('/api/recordings');
            const data = await res.json();
            $('recordings').innerHTML = '';
            for (const rec of data.recordings) {
                const li = document.createElement('li');
                const a = document.createElement('a');
                a.href = rec.stream_url;
                a.textContent = rec.name + ' (' + rec.size_human + ')';
                li.appendChild(a);
                $('recordings').appendChild(li);
            }
        }

        $('toggle').addEventListener('click', async () => {
            const res = await fetch('/toggle', { method: 'POST' });
            const data = await res.json();
            if (!data.success) {
                alert(data.error);
            }
            await refresh();
            await loadRecordings();
        });

        refresh();
        loadRecordings();
        setInterval(refresh, 1000);
    </script>
</body>
</html>`
