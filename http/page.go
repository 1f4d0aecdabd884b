package http

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"solarcast/ml"
)

// FormField describes one input on the prediction form. Ranges and
// defaults mirror the historical dataset the model was trained on; the
// core treats every value as an unconstrained float.
type FormField struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

func formFields() []FormField {
	return []FormField{
		{Name: ml.FeatureDistanceToSolarNoon, Label: "Distance to solar noon", Min: 0, Max: 1.2, Step: 0.01, Default: 0.3},
		{Name: ml.FeatureTemperature, Label: "Temperature (°F)", Min: 40, Max: 80, Step: 1, Default: 60},
		{Name: ml.FeatureWindDirection, Label: "Wind direction", Min: 1, Max: 36, Step: 1, Default: 25},
		{Name: ml.FeatureWindSpeed, Label: "Wind speed (mph)", Min: 0, Max: 30, Step: 0.1, Default: 9},
		{Name: ml.FeatureSkyCover, Label: "Sky cover", Min: 0, Max: 4, Step: 1, Default: 1},
		{Name: ml.FeatureVisibility, Label: "Visibility (mi)", Min: 0, Max: 10, Step: 0.5, Default: 10},
		{Name: ml.FeatureHumidity, Label: "Humidity (%)", Min: 0, Max: 100, Step: 1, Default: 60},
		{Name: ml.FeatureAvgWindSpeed, Label: "Average wind speed (period)", Min: 0, Max: 40, Step: 0.1, Default: 10},
		{Name: ml.FeatureAvgPressure, Label: "Average pressure (period)", Min: 29.4, Max: 30.6, Step: 0.01, Default: 30},
	}
}

func RegisterPageHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleIndexPage)
}

func handleIndexPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, map[string]interface{}{
		"Fields": formFields(),
	}); err != nil {
		zap.S().Warnw("failed to render index page", "error", err)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Solarcast — Solar Power Estimator</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 760px; padding: 24px; background: #f7f8fa; color: #222; }
  h1 { font-size: 1.4rem; }
  form { display: grid; grid-template-columns: 1fr 1fr; gap: 12px 20px; background: #fff; padding: 20px; border-radius: 8px; }
  label { display: block; font-size: 0.85rem; margin-bottom: 4px; color: #555; }
  input { width: 100%; box-sizing: border-box; padding: 6px 8px; border: 1px solid #ccd; border-radius: 4px; }
  .actions { grid-column: 1 / -1; display: flex; gap: 12px; }
  button { padding: 8px 18px; border: none; border-radius: 4px; cursor: pointer; font-size: 0.95rem; }
  #predict { background: #2b6cb0; color: #fff; }
  #reset { background: #e2e8f0; }
  #result { margin-top: 20px; background: #fff; padding: 20px; border-radius: 8px; display: none; }
  #bar-track { background: #edf2f7; border-radius: 4px; height: 28px; margin: 12px 0; }
  #bar { height: 100%; border-radius: 4px; width: 0; color: #fff; font-size: 0.85rem; line-height: 28px; padding-left: 8px; box-sizing: border-box; transition: width 0.3s; }
  #trend { display: flex; align-items: flex-end; gap: 8px; height: 60px; margin-top: 12px; }
  #trend div { flex: 1; background: #90cdf4; border-radius: 3px 3px 0 0; }
  .swatch { display: inline-block; width: 12px; height: 12px; border-radius: 2px; margin-right: 6px; }
  #error { color: #c53030; margin-top: 16px; display: none; }
</style>
</head>
<body>
<h1>Solar power output estimator</h1>
<p>Enter the current weather measurements and estimate the generated power.</p>
<form id="form">
{{range .Fields}}
  <div>
    <label for="{{.Name}}">{{.Label}}</label>
    <input type="number" id="{{.Name}}" name="{{.Name}}" min="{{.Min}}" max="{{.Max}}" step="{{.Step}}" value="{{.Default}}" required>
  </div>
{{end}}
  <div class="actions">
    <button type="submit" id="predict">Predict</button>
    <button type="button" id="reset">Reset to defaults</button>
  </div>
</form>
<div id="result">
  <strong>Estimated power: <span id="display"></span> units</strong>
  <div><span class="swatch" id="swatch"></span><span id="level"></span> output</div>
  <div id="bar-track"><div id="bar"></div></div>
  <div>Power comparison trend</div>
  <div id="trend"></div>
</div>
<p id="error"></p>
<script>
const form = document.getElementById('form');
const result = document.getElementById('result');
const errorBox = document.getElementById('error');

form.addEventListener('submit', async (e) => {
  e.preventDefault();
  errorBox.style.display = 'none';
  const inputs = {};
  for (const el of form.querySelectorAll('input')) {
    inputs[el.name] = parseFloat(el.value);
  }
  try {
    const resp = await fetch('/api/predict', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(inputs)
    });
    const data = await resp.json();
    if (!resp.ok) { throw new Error(data.error || 'prediction failed'); }
    render(data);
  } catch (err) {
    errorBox.textContent = err.message;
    errorBox.style.display = 'block';
    result.style.display = 'none';
  }
});

document.getElementById('reset').addEventListener('click', () => {
  form.reset();
  result.style.display = 'none';
  errorBox.style.display = 'none';
});

function render(data) {
  document.getElementById('display').textContent = data.display;
  document.getElementById('level').textContent = data.level;
  document.getElementById('swatch').style.background = data.color;
  const bar = document.getElementById('bar');
  bar.style.background = data.color;
  bar.style.width = Math.min(100, data.value / Math.max(data.value * 1.5, 5000) * 100) + '%';
  bar.textContent = data.display;
  const trend = document.getElementById('trend');
  trend.innerHTML = '';
  const peak = Math.max(...data.trend, 1);
  for (const v of data.trend) {
    const col = document.createElement('div');
    col.style.height = (v / peak * 100) + '%';
    trend.appendChild(col);
  }
  result.style.display = 'block';
}
</script>
</body>
</html>
`
