// Package handlers implements the HTTP API of the proxy.
//
// Handlers delegate to the fitness service and focus on parameter handling,
// response formatting and mapping errors to status codes. Query and path
// parameters are bound by the generated wrapper in api/v1, which answers 400
// on a missing or malformed parameter before the handler runs.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│          HTTP Request (Gin) + API key / request id middlewares  │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│   FitnessService ──► scheduler fan-out ──► garmin.Client        │
//	└─────────────────────────────────────────────────────────────────┘
//
// # API Endpoints
//
//	┌────────┬──────────────────────────────┬──────────────────────────────────┐
//	│ Method │ Endpoint                     │ Description                      │
//	├────────┼──────────────────────────────┼──────────────────────────────────┤
//	│ GET    │ /health                      │ Liveness, no API key             │
//	│ GET    │ /params                      │ Training parameters              │
//	│ GET    │ /activities?start&end        │ Raw activities                   │
//	│ GET    │ /activities.xlsx?start&end   │ Activities as a workbook         │
//	│ GET    │ /activity/{id}/steps         │ Splits of an activity            │
//	│ GET    │ /daily?date_str              │ Summary, hrv, sleep, stress      │
//	└────────┴──────────────────────────────┴──────────────────────────────────┘
//
// /params and /daily are best effort: a failed vendor call yields null values
// (params) or empty objects (daily sections), never an error status. The same
// holds for the steps of an activity.
//
// # Error Mapping
//
//	┌─────────────────────────────────┬──────────────────────────────┐
//	│ Error                           │ HTTP Status                  │
//	├─────────────────────────────────┼──────────────────────────────┤
//	│ parameter binding failure       │ 400 Bad Request              │
//	│ InvalidParameterError           │ 400 Bad Request              │
//	│ VendorUnauthorizedError         │ 502 Bad Gateway              │
//	│ VendorError                     │ 502 Bad Gateway              │
//	│ circuit breaker open            │ 503 Service Unavailable      │
//	│ anything else                   │ 500 Internal Server Error    │
//	└─────────────────────────────────┴──────────────────────────────┘
//
// Error responses use the body:
//
//	{"error": "message"}
package handlers
