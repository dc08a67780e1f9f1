// Package http serves the folio content API.
//
// Read endpoints (blog list and posts, gallery, analytics) are public. Every
// endpoint that changes state is gated by the shared admin token, sent in the
// x-admin-token header or, depending on the endpoint, in the JSON body
// ("token") or the query string. A server without a configured token answers
// those endpoints with 500 rather than 401.
//
// # Routes
//
//	GET    /blogs                    list posts, newest first
//	GET    /blogs/{slug}             one post
//	POST   /blogs                    publish a post (201)
//	DELETE /blogs/{slug}             remove a post
//	GET    /gallery                  list; ?page, ?limit, ?featured=true
//	POST   /gallery                  record an uploaded image (201)
//	DELETE /gallery/{id}             remove an item and its image
//	POST   /gallery/upload-url       sign one direct upload
//	POST   /gallery/multi-upload     sign a batch of uploads
//	PUT    /gallery/multi-upload     record a finished batch
//	POST   /gallery/cleanup          drop items whose image is unreachable
//	POST   /gallery/fix-invalid      drop malformed items (?probe=true also probes)
//	POST   /auth/verify              check a token
//	GET    /analytics                view counters
//	POST   /analytics/track          count a page or blog view
//	POST   /analytics/reset          zero the counters
//
// The routes are mounted under HandlerConfig.APIPrefix. When objects are kept
// on local disk, ObjectHandler serves them under /objects: GET is public,
// PUT and DELETE require a presigned URL checked by a RequestVerifier.
//
// # Usage
//
//	token := keybackend.NewAdminToken(os.Getenv("ADMIN_TOKEN"))
//	handler := http.NewHandler(&http.HandlerConfig{
//	    APIPrefix:  "/api",
//	    AdminToken: token,
//	}, service)
//	http.ListenAndServe(":5708", handler.Router())
//
// Successful blog and gallery writes are followed by a Revalidator call
// naming the affected page paths.
package http
