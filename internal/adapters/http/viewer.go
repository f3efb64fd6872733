package http

import (
	"github.com/gofiber/fiber/v2"
)

// viewerHTML is a minimal Leaflet page driven entirely by the /ws session.
const viewerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>PokeMap</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
  <style>html,body,#map{height:100%;margin:0}#status{position:absolute;bottom:8px;left:8px;z-index:1000;background:#fff;padding:4px 8px;font:12px sans-serif}</style>
</head>
<body>
  <div id="map"></div>
  <div id="status">connecting</div>
  <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
  <script>
    const map = L.map('map');
    const layer = L.layerGroup().addTo(map);
    const status = document.getElementById('status');
    const el = document.getElementById('map');
    const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
    const ws = new WebSocket(proto + '//' + location.host + '/ws?width=' + el.clientWidth + '&height=' + el.clientHeight);
    const send = (m) => ws.readyState === 1 && ws.send(JSON.stringify(m));
    let applying = false;

    ws.onmessage = (e) => {
      const m = JSON.parse(e.data);
      const p = m.payload;
      switch (m.type) {
        case 'session': status.textContent = 'session ' + p.id; break;
        case 'tileLayer': L.tileLayer(p.url, {attribution: p.options.attribution, maxZoom: p.options.max_zoom}).addTo(map); break;
        case 'setView': applying = true; map.setView([p.center.lat, p.center.lng], p.zoom); applying = false; break;
        case 'clear': layer.clearLayers(); break;
        case 'marker':
          L.marker([p.position.lat, p.position.lng], {icon: L.icon({
            iconUrl: p.icon.url,
            iconSize: [p.icon.size.x, p.icon.size.y],
            shadowSize: [p.icon.shadow_size.x, p.icon.shadow_size.y],
            shadowAnchor: [p.icon.shadow_anchor.x, p.icon.shadow_anchor.y],
            popupAnchor: [p.icon.popup_anchor.x, p.icon.popup_anchor.y],
          })}).on('click', () => send({type: 'details', id: p.pokemon_id})).addTo(layer);
          break;
        case 'details': L.popup().setLatLng(map.getCenter()).setContent('<pre>' + JSON.stringify(p, null, 2) + '</pre>').openOn(map); break;
        case 'error': status.textContent = 'error: ' + p.message; break;
      }
    };
    ws.onclose = () => { status.textContent = 'disconnected'; };

    map.on('moveend', () => {
      if (applying) return;
      const c = map.getCenter();
      send({type: 'moveend', center: {lat: c.lat, lng: c.lng}, zoom: map.getZoom()});
    });
    window.addEventListener('resize', () => send({type: 'resize', width: el.clientWidth, height: el.clientHeight}));
  </script>
</body>
</html>`

// ViewerHandler serves the browser map.
func ViewerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.SendString(viewerHTML)
	}
}
