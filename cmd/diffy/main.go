// Command diffy runs the web service: upload a pair of files and get
// back a link to a paginated HTML diff.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.etcd.io/bbolt"

	"github.com/thehowl/difftree/pkg/db"
	dhttp "github.com/thehowl/difftree/pkg/http"
	"github.com/thehowl/difftree/pkg/present"
	"github.com/thehowl/difftree/pkg/storage"
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

	maxReportSize           string
	maxReportChildSize      string
	maxDiffBlockLines       string
	maxDiffBlockLinesParent string
	maxDiffBlockLinesRatio  string
	cssURL                  string
	jqueryURL               string
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
	def := present.DefaultConfig()

	var opts optsType
	stringVar(&opts.listenAddr, "listen-addr", ":18844", "listen address for the web server")
	stringVar(&opts.publicURL, "public-url", "localhost:18844", "url for the server, used in the curl example")
	stringVar(&opts.dbFile, "db-file", "data/db.bolt", "the file used for the database. "+
		"this will be a cache (if used together with s3) or the permanent database")
	stringVar(&opts.s3Endpoint, "s3-endpoint", "", "s3 endpoint")
	stringVar(&opts.s3AccessKey, "s3-access-key", "", "s3 access key")
	stringVar(&opts.s3AccessSecret, "s3-access-secret", "", "s3 access secret")
	stringVar(&opts.s3Bucket, "s3-bucket", "", "s3 bucket")
	stringVar(&opts.cacheMaxBytes, "cache-max-bytes", "268435456", "max size in bytes of the local bbolt cache in front of s3")

	stringVar(&opts.maxReportSize, "max-report-size", strconv.Itoa(def.MaxReportSize),
		"byte cap on the primary report page")
	stringVar(&opts.maxReportChildSize, "max-report-child-size", strconv.Itoa(def.MaxReportChildSize),
		"byte cap on one rotated child page")
	stringVar(&opts.maxDiffBlockLines, "max-diff-block-lines", strconv.Itoa(def.MaxDiffBlockLines),
		"hard row cap for a single diff table")
	stringVar(&opts.maxDiffBlockLinesParent, "max-diff-block-lines-parent", strconv.Itoa(def.MaxDiffBlockLinesParent),
		"soft row cap on the parent page before the first rotation")
	stringVar(&opts.maxDiffBlockLinesRatio, "max-diff-block-lines-html-dir-ratio",
		strconv.FormatFloat(def.MaxDiffBlockLinesHTMLDirRatio, 'f', -1, 64),
		"multiple of max-diff-block-lines allowed across all rotated pages")
	stringVar(&opts.cssURL, "css-url", "", "extra stylesheet linked in addition to the embedded one")
	stringVar(&opts.jqueryURL, "jquery-url", "", "script src for the on-demand page loader; "+
		"empty searches the filesystem, \"disable\" turns on-demand loading off")
	flag.Parse()

	bdb, err := bbolt.Open(opts.dbFile, 0o600, nil)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	database := &db.DB{DB: bdb}

	var store storage.Storage
	if opts.s3Endpoint == "" {
		store = storage.NewDBStorage(bdb, []byte("storage"))
	} else {
		minioClient, err := minio.New(opts.s3Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(opts.s3AccessKey, opts.s3AccessSecret, ""),
			Secure: true,
		})
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		permanent := storage.NewMinioStorage(minioClient, opts.s3Bucket)

		maxBytes, err := strconv.ParseUint(opts.cacheMaxBytes, 10, 64)
		if err != nil {
			log.Fatalf("invalid -cache-max-bytes: %v", err)
		}
		cache := storage.NewDBStorage(bdb, []byte("cache"))
		cached, err := storage.NewCachedStorage(cache, permanent, maxBytes)
		if err != nil {
			log.Fatalf("cache init error: %v", err)
		}
		store = cached
	}

	cfg := present.Config{
		MaxReportSize:                 mustAtoi(opts.maxReportSize),
		MaxReportChildSize:            mustAtoi(opts.maxReportChildSize),
		MaxDiffBlockLines:             mustAtoi(opts.maxDiffBlockLines),
		MaxDiffBlockLinesParent:       mustAtoi(opts.maxDiffBlockLinesParent),
		MaxDiffBlockLinesHTMLDirRatio: mustAtof(opts.maxDiffBlockLinesRatio),
		CSSURL:                        opts.cssURL,
	}
	cfg.JqueryURL = present.ResolveJqueryURL(opts.jqueryURL, nil, "static")

	srv := &dhttp.Server{
		PublicURL: opts.publicURL,
		Storage:   store,
		DB:        database,
		Present:   cfg,
	}

	fmt.Println("listening on", opts.listenAddr)
	log.Fatal(http.ListenAndServe(opts.listenAddr, srv.Router()))
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid integer flag value %q: %v", s, err)
	}
	return n
}

func mustAtof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("invalid float flag value %q: %v", s, err)
	}
	return f
}
