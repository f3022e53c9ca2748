package setup

// htmlPage is served for every unknown path so phones open the portal.
// Scan results are untrusted: any nearby access point picks its own SSID, so
// the script only ever assigns them through textContent.
const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Strct WiFi Setup</title>
<style>
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif;
    background: #e3e1db;
    color: #1d1d1f;
    min-height: 100vh;
    display: flex;
    align-items: center;
    justify-content: center;
    padding: 20px;
  }
  main { width: 100%; max-width: 460px; }
  header { text-align: center; margin-bottom: 24px; }
  header small { color: #555; font-size: 1.1rem; }
  h1 { font-size: 2.2rem; margin-top: 8px; }
  section {
    background: #f0efed;
    border-radius: 16px;
    padding: 24px;
    box-shadow: 0 8px 24px rgba(0,0,0,0.06);
  }
  button {
    width: 100%;
    padding: 14px;
    border: none;
    border-radius: 9999px;
    background: #ffc233;
    font-size: 16px;
    font-weight: 600;
    cursor: pointer;
  }
  button.plain { background: transparent; color: #666; margin-top: 10px; }
  button:disabled { opacity: 0.6; }
  input {
    width: 100%;
    padding: 14px;
    border: 1px solid #ccc;
    border-radius: 10px;
    margin: 12px 0;
    font-size: 16px;
  }
  ul { list-style: none; max-height: 320px; overflow-y: auto; margin: 12px 0; }
  li {
    display: flex;
    justify-content: space-between;
    align-items: center;
    background: #fff;
    padding: 12px 16px;
    margin-bottom: 6px;
    border-radius: 10px;
    cursor: pointer;
  }
  li strong { display: block; }
  li small, .muted { color: #666; font-size: 13px; }
  .hidden { display: none; }
</style>
</head>
<body>
<main>
  <header>
    <small>Strct Agent</small>
    <h1>Put this device online</h1>
  </header>

  <section id="intro">
    <p class="muted" style="margin-bottom:16px; text-align:center">Pick the Wi-Fi network this device should join.</p>
    <button onclick="scan()">Find Networks</button>
  </section>

  <section id="loading" class="hidden">
    <p class="muted" style="text-align:center">Scanning for networks...</p>
  </section>

  <section id="networks" class="hidden">
    <h3>Select Network</h3>
    <ul id="list"></ul>
    <button class="plain" onclick="show('intro')">Cancel</button>
  </section>

  <section id="join" class="hidden">
    <h3 id="selected-ssid"></h3>
    <input id="pass" type="password" placeholder="Password">
    <button id="join-btn" onclick="connect()">Connect</button>
    <button class="plain" onclick="show('networks')">Back</button>
  </section>

  <section id="done" class="hidden" style="text-align:center">
    <h3>Connecting...</h3>
    <p class="muted">The device is joining your network. You can close this page.</p>
  </section>
</main>

<script>
  const el = (id) => document.getElementById(id);
  let selected = '';

  function show(id) {
    ['intro', 'loading', 'networks', 'join', 'done'].forEach(s => el(s).classList.add('hidden'));
    el(id).classList.remove('hidden');
  }

  function text(tag, value) {
    const node = document.createElement(tag);
    node.textContent = value;
    return node;
  }

  function networkItem(n) {
    const li = document.createElement('li');
    const label = document.createElement('div');
    label.appendChild(text('strong', n.ssid));
    label.appendChild(text('small', n.security || 'Open'));
    li.appendChild(label);
    li.appendChild(text('span', String(n.signal) + '%'));
    li.onclick = () => {
      selected = n.ssid;
      el('selected-ssid').textContent = n.ssid;
      el('pass').value = '';
      show('join');
    };
    return li;
  }

  async function scan() {
    show('loading');
    try {
      const res = await fetch('/api/scan');
      if (!res.ok) throw new Error('scan failed');
      const nets = await res.json();

      const list = el('list');
      list.replaceChildren();
      nets.filter(n => n.ssid).forEach(n => list.appendChild(networkItem(n)));
      if (!list.children.length) {
        list.appendChild(text('li', 'No networks found'));
      }
      show('networks');
    } catch (e) {
      alert('Error scanning networks');
      show('intro');
    }
  }

  async function connect() {
    const btn = el('join-btn');
    btn.textContent = 'Verifying...';
    btn.disabled = true;
    try {
      const res = await fetch('/api/connect', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({ssid: selected, password: el('pass').value})
      });
      if (!res.ok) throw new Error('connect failed');
      show('done');
    } catch (e) {
      alert('Failed to join the network.');
      btn.textContent = 'Connect';
      btn.disabled = false;
    }
  }
</script>
</body>
</html>
`
