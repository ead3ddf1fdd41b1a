package guidelines

// homeHTML is the single-page question UI served at /.
const homeHTML = `<!doctype html>
<html lang="en"><head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Clinical guidelines</title>
<style>
  :root { color-scheme: light dark; --ink:#0f172a; --mut:#475569; --pill:#e2e8f0;}
  body { font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, 'Helvetica Neue', Arial; margin:24px; color:var(--ink); }
  h1 { font-size:22px; margin:0 0 6px; }
  .small { color:var(--mut); font-size:12.5px;}
  textarea { width:100%; height:88px; padding:12px; font: 14px/1.4 ui-sans-serif; border:1px solid #cbd5e1; border-radius:10px; outline:none }
  button { margin-top:10px; padding:10px 14px; border-radius:12px; border:1px solid #0ea5e9; background:#0ea5e9; color:white; font-weight:600; cursor:pointer }
  #ans { margin-top:16px; }
  #answerText { font-size:15px; line-height:1.45; white-space:normal }
  h4 { font-size:15px; margin:12px 0 8px }
  ul { margin:6px 0 12px 18px }
  li { margin:4px 0 }
  .pill { display:inline-block; background:var(--pill); padding:2px 8px; border-radius:999px; font-size:11.5px; margin-right:6px }
</style>
</head><body>
  <h1>Clinical guidelines</h1>
  <div class="small">One-line question in → succinct 4-part answer out.</div>
  <textarea id="q" placeholder="e.g., Hyperkalaemia with wide QRS: definition, causes, immediate management"></textarea>
  <div><button id="askBtn">Answer</button></div>
  <div id="ans" style="display:none">
    <div id="answerText"></div>
    <div id="srcs" class="small"></div>
  </div>
<script>
const $ = s => document.querySelector(s);
async function ask(){
  const q = $("#q").value.trim(); if(!q) return;
  $("#ans").style.display="block";
  $("#answerText").innerHTML = "<div class='small'>Working…</div>";
  $("#srcs").innerHTML = "";
  try {
    const r = await fetch("/answer", {method:"POST", headers:{"Content-Type":"application/json"}, body: JSON.stringify({question:q, k: 14})});
    const j = await r.json();
    $("#answerText").innerHTML = j.answer || "No matches.";
    const srcs = (j.sources||[]).map(s => {
      const bits = [s.org||"", s.title||"", s.published?("("+s.published.slice(0,10)+")"):""].filter(Boolean).join(" — ");
      const link = s.url ? `+ "`" +
`<a href="${s.url}" target="_blank" rel="noopener">link</a>`+ "`" +
` : "";
      return `+ "`" +
`<div class="small">• ${bits} ${link}</div>`+ "`" +
`;
    }).join("");
    $("#srcs").innerHTML = srcs ? `+ "`" +
`<div style="margin-top:8px"><span class="pill">Sources</span></div>${srcs}`+ "`" +
` : "";
  } catch(e){
    $("#answerText").textContent = "Error: " + (e && e.message || e);
  }
}
$("#askBtn").onclick = ask;
</script>
</body></html>`
