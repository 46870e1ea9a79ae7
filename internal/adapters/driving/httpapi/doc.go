// Package httpapi is the REST surface of the service, built on gin.
//
// Routes:
//
//	GET  /health        ensure the collection and report the embedding model
//	POST /chat          answer a query from the indexed passages
//	POST /upload        multipart "files", indexed one by one
//	POST /cms/import    structured records
//	POST /reset         drop and recreate the collection
//	GET  /files/*name   retained uploads
//	GET  /metrics       Prometheus exposition
//
// Errors are returned as {"detail": "..."}.
package httpapi
