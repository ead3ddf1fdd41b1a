package assistant

// homeHTML is the minimal assistant page served at /.
const homeHTML = `<!doctype html><meta charset="utf-8"><title>Personal Assistant</title>
<style>body{font-family:system-ui,Arial,sans-serif;max-width:680px;margin:24px auto;padding:0 16px}
textarea{width:100%;height:120px}button{width:100%;padding:12px;margin-top:8px;font-size:16px}
#ans{white-space:pre-wrap;background:#f6f8fa;padding:14px;border-radius:10px;margin-top:16px}</style>
<h2>Personal Assistant</h2>
<textarea id="q" placeholder="Ask anything (drop .zip/.pdf/.docx into the data folder and hit /reindex)"></textarea>
<button id="ask">Ask</button><div id="ans"></div>
<script>
document.getElementById('ask').onclick = async () => {
  const q = document.getElementById('q').value.trim(); if(!q) return;
  document.getElementById('ans').textContent = 'Working…';
  const r = await fetch('/answer',{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify({question:q})});
  const j = await r.json();
  document.getElementById('ans').textContent = j.answer || j.error || 'No response';
};
</script>`
