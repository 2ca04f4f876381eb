// Command diffy runs the diffy web server: it accepts a pair of
// uploaded files, stores them content-addressably, and renders their
// diff on request.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/thehowl/diffy/pkg/db"
	httpserver "github.com/thehowl/diffy/pkg/http"
	"github.com/thehowl/diffy/pkg/storage"
	"go.etcd.io/bbolt"
)

type optsType struct {
	listenAddr     string
	publicURL      string
	dbFile         string
	s3Endpoint     string
	s3AccessKey    string
	s3AccessSecret string
	s3Bucket       string
	cacheMaxBytes  string
}

func defaultEnv(s, def string) string {
	v, ok := os.LookupEnv(s)
	if ok {
		return v
	}
	return def
}

func stringVar(p *string, fg, defaultValue, usage string) {
	ev := strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
	flag.StringVar(p, fg, defaultEnv(ev, defaultValue), usage+". env var: "+ev)
}

func main() {
	var opts optsType
	stringVar(&opts.listenAddr, "listen-addr", ":18844", "listen address for the web server")
	stringVar(&opts.publicURL, "public-url", "http://localhost:18844", "url for the server, used in the curl example")
	stringVar(&opts.dbFile, "db-file", "data/db.bolt", "the file used for the database. "+
		"this will be a cache (if used together with s3) or the permanent database")
	stringVar(&opts.s3Endpoint, "s3-endpoint", "", "s3 endpoint; if unset, uploads are stored directly in db-file")
	stringVar(&opts.s3AccessKey, "s3-access-key", "", "s3 access key")
	stringVar(&opts.s3AccessSecret, "s3-access-secret", "", "s3 access secret")
	stringVar(&opts.s3Bucket, "s3-bucket", "diffy", "s3 bucket")
	stringVar(&opts.cacheMaxBytes, "cache-max-bytes", fmt.Sprint(64<<20), "max bytes kept in the db-file cache when s3 storage is used")
	flag.Parse()

	bdb, err := bbolt.Open(opts.dbFile, 0o600, nil)
	if err != nil {
		panic(fmt.Errorf("db open error: %w", err))
	}

	backend, err := newBackendStorage(opts, bdb)
	if err != nil {
		panic(fmt.Errorf("storage init error: %w", err))
	}

	srv := &httpserver.Server{
		PublicURL: opts.publicURL,
		Storage:   backend,
		DB:        &db.DB{DB: bdb},
		Output:    os.Stdout,
	}

	fmt.Println("listening on", opts.listenAddr)
	panic(http.ListenAndServe(opts.listenAddr, srv.Router()))
}

// newBackendStorage wires bdb as the permanent store when no S3 endpoint
// is configured, or as an LRU cache fronting S3-compatible object
// storage otherwise.
func newBackendStorage(opts optsType, bdb *bbolt.DB) (storage.Storage, error) {
	if opts.s3Endpoint == "" {
		return storage.NewDBStorage(bdb, []byte("storage")), nil
	}

	minioClient, err := minio.New(opts.s3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.s3AccessKey, opts.s3AccessSecret, ""),
		Secure: true,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init error: %w", err)
	}

	maxBytes, err := strconv.ParseUint(opts.cacheMaxBytes, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache-max-bytes: %w", err)
	}

	permanent := storage.NewMinioStorage(minioClient, opts.s3Bucket)
	cache := storage.NewDBStorage(bdb, []byte("cache"))
	return storage.NewCachedStorage(cache, permanent, maxBytes)
}
