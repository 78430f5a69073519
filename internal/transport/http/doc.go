// Package http implements the HTTP handlers of the salesbi API. Handlers are
// a thin layer over the services package: they parse and validate requests,
// call a service and format the response.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → ParamsCtx → Handler → Service
//
// ParamsCtx reads the report filters (date_from, date_to, salesperson,
// region, month, year, customer, limit) from the query string, validates
// them and stores them in the request context for ParamsFromContext.
//
// # Responses
//
// Successful JSON responses share one envelope:
//
//	{"status": "success", "data": [...], "count": 3}
//
// count is present when data is a list. Exports answer with the file itself
// and a Content-Disposition attachment header.
//
// # Error Handling
//
// Handlers never write errors themselves. Every error goes through
// ErrorHandler.HandleError and is answered as RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/data/not-loaded",
//	    "title": "No Dataset",
//	    "status": 503,
//	    "detail": "no dataset loaded",
//	    "instance": "/api/reports/summary"
//	}
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of
// ReportServiceInterface and DatasetServiceInterface.
package http
