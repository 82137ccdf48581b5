// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the meal reservation API.

# Route Registration

	mux := router.NewRouter(st, sheetClient, sessions, cfg)

NewProxyRouter serves only /health and the local proxy; the `proxy`
command runs it next to the browser app during development.

# Endpoints

Health and configuration:

	GET  /health
	GET  /config/status
	POST /config/test-connection

Reservations:

	GET    /inscripciones?fecha=&iniciales=&comida=&desde=&hasta=
	POST   /inscripciones
	GET    /inscripciones/today?fecha=
	DELETE /inscripciones                 - clear all (X-Admin-Key)

Data:

	GET  /stats
	GET  /export?format=json|xlsx
	POST /import?source=                  - (X-Admin-Key)
	POST /backup
	GET  /backups
	POST /backups/{key}/restore           - (X-Admin-Key)

Selection sessions:

	GET  /users/{iniciales}/selection?desde=&dias=
	POST /users/{iniciales}/selection/toggle
	POST /users/{iniciales}/selection/save

Proxies:

	POST /proxy/google-apps-script
	GET  /proxy/test
	POST /api/sheets                      - read / write / testConnection
*/
package router
