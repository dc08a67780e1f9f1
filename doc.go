// Package folio is the content backend of a personal portfolio site: blog
// posts, a photo gallery and page view analytics, each persisted as a single
// JSON document in object storage.
//
// # Key Components
//
//   - Store: reads and writes the index documents with a short-lived cache
//     and falls back to bundled content when storage is unreachable
//   - Service: validates admin input, authorizes uploads with signed URLs and
//     runs the gallery maintenance sweeps
//   - DocumentStore: whole-document persistence (object store over HTTP,
//     filesystem, SQLite, PostgreSQL, Badger)
//   - Signer: time-limited URLs for uploads and deletes (GCS, S3, MinIO,
//     Stowry, or folio's own /objects mount)
//   - SignatureVerifier: checks presigned URLs issued for the /objects mount
//
// # Consistency
//
// Documents are replaced whole with no conditional write. Two concurrent
// writers of the same document race and the last one wins.
//
// # Example Usage
//
//	store, err := folio.NewStore(docs, signer, folio.StoreConfig{
//	    Source: folio.SourceRemote,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	service := folio.NewService(store, signer, objects, prober, folio.ServiceConfig{})
//
//	post, err := service.CreateBlog(ctx, folio.BlogInput{Title: "Hello", Body: "First post."})
//
// See the http package for the REST API and cmd/folio for the server binary.
package folio
