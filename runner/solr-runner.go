package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	solr "github.com/sendgrid/go-solr/v2"
)

func main() {
	app := &cli.App{
		Name:  "solr-runner",
		Usage: "exercise go-solr against a live cluster",
		Commands: []*cli.Command{
			{
				Name:  "smoke",
				Usage: "upload a config, create a collection, index, select and delete one document",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "cleanup", Value: true, Usage: "drop the collection and config at the end"},
				},
				Action: smokeAction,
			},
			{
				Name:  "paginate",
				Usage: "index documents and walk them back with a cursor mark",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "docs", Value: 3, Usage: "documents to index"},
					&cli.IntFlag{Name: "rows", Value: 1, Usage: "page size"},
				},
				Action: paginateAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runner struct {
	cfg    *RunnerConfig
	conn   *connection
	logger solr.Logger
}

func newRunner() (*runner, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	zl, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	logger := solr.ZapLogger(zl)
	conn, err := connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &runner{cfg: cfg, conn: conn, logger: logger}, nil
}

func smokeAction(c *cli.Context) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	defer r.conn.Close()
	if err := r.smoke(c.Context, c.Bool("cleanup")); err != nil {
		return err
	}
	r.logger.Info("smoke done", "collection", r.cfg.Collection)
	return nil
}

func (r *runner) smoke(ctx context.Context, cleanup bool) error {
	s := r.conn.server
	if _, err := solr.UploadConfig(ctx, s, r.cfg.ConfigName, r.cfg.ConfigDir); err != nil {
		return errors.Wrap(err, "uploading config")
	}
	if _, err := solr.CreateCollection(ctx, s, r.cfg.Collection, r.cfg.ConfigName, 1, 1); err != nil {
		return errors.Wrap(err, "creating collection")
	}
	if cleanup {
		defer r.cleanup(ctx)
	}

	id := uuid.New().String()
	if _, err := solr.NewUpdateQuery().Execute(ctx, s, r.cfg.Collection, []map[string]interface{}{{"id": id}}); err != nil {
		return errors.Wrap(err, "indexing")
	}
	if err := r.expectDocs(ctx, id, 1); err != nil {
		return err
	}
	if _, err := solr.NewDeleteQuery().WithIDs(id).Execute(ctx, s, r.cfg.Collection); err != nil {
		return errors.Wrap(err, "deleting")
	}
	return r.expectDocs(ctx, id, 0)
}

func (r *runner) expectDocs(ctx context.Context, id string, want int) error {
	resp, err := solr.NewSelectQuery().WithFQ("id:" + id).Execute(ctx, r.conn.server, r.cfg.Collection)
	if err != nil {
		return errors.Wrap(err, "selecting")
	}
	docs, err := solr.Docs[map[string]interface{}](resp.Response)
	if err != nil {
		return err
	}
	if len(docs) != want {
		return errors.Errorf("expected %d documents for %s, found %d", want, id, len(docs))
	}
	for _, doc := range docs {
		if solr.GetDocIdFromDoc(doc) != id {
			return errors.Errorf("unexpected document %v", doc)
		}
	}
	return nil
}

func (r *runner) cleanup(ctx context.Context) {
	if _, err := solr.DeleteCollection(ctx, r.conn.server, r.cfg.Collection); err != nil {
		r.logger.Error("could not delete collection", "collection", r.cfg.Collection, "error", err)
	}
	if _, err := solr.DeleteConfig(ctx, r.conn.server, r.cfg.ConfigName); err != nil {
		r.logger.Error("could not delete config", "config", r.cfg.ConfigName, "error", err)
	}
}

func paginateAction(c *cli.Context) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	defer r.conn.Close()
	pages, err := r.paginate(c.Context, c.Int("docs"), c.Int("rows"))
	if err != nil {
		return err
	}
	r.logger.Info("paginate done", "pages", pages)
	return nil
}

// paginate indexes n documents sharing a batch tag and reads them back page
// by page, failing on duplicates or missing ids.
func (r *runner) paginate(ctx context.Context, n int, rows int) (int, error) {
	s := r.conn.server
	batch := uuid.New().String()
	want := make(map[string]bool, n)
	docs := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		id := batch + "-" + uuid.New().String()
		want[id] = true
		docs = append(docs, map[string]interface{}{"id": id})
	}
	if _, err := solr.NewUpdateQuery().Execute(ctx, s, r.cfg.Collection, docs); err != nil {
		return 0, errors.Wrap(err, "indexing")
	}

	q := solr.NewSelectQuery().
		WithFQ(fmt.Sprintf("id:%s-*", batch)).
		WithSort("id asc").
		WithRows(rows).
		WithCursorMark(solr.CursorMarkStart)
	seen := make(map[string]bool, n)
	pages := 0
	for {
		resp, err := q.Execute(ctx, s, r.cfg.Collection)
		if err != nil {
			return pages, errors.Wrapf(err, "page %d", pages)
		}
		page, err := solr.Docs[map[string]interface{}](resp.Response)
		if err != nil {
			return pages, err
		}
		for _, doc := range page {
			id := solr.GetDocIdFromDoc(doc)
			if seen[id] {
				return pages, errors.Errorf("duplicate document %s", id)
			}
			seen[id] = true
		}
		next, ok := q.NextCursor(resp)
		if !ok {
			break
		}
		pages++
		q = next
	}
	var missing []string
	for id := range want {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return pages, errors.Errorf("missing documents %s", strings.Join(missing, ","))
	}
	_, err := solr.NewDeleteQuery().WithQueries(fmt.Sprintf("id:%s-*", batch)).Execute(ctx, s, r.cfg.Collection)
	return pages, err
}
