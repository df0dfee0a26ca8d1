package solr

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// UploadConfig uploads a config set. A directory is zipped with stored
// entries first, a single file is sent as is.
func UploadConfig(ctx context.Context, s *ServerContext, name string, path string) (*SolrResponse, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewIOError(path, err)
	}
	var body []byte
	if info.IsDir() {
		body, err = zipDirectory(path)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, NewIOError(path, err)
	}
	return s.doRequest(ctx, solrRequest{
		method:      http.MethodPost,
		path:        configsAdminPath,
		handler:     "admin",
		params:      url.Values{"action": {"UPLOAD"}, "name": {name}, "wt": {"json"}},
		body:        body,
		contentType: contentTypeStream,
	})
}

// zipDirectory archives every regular file below dir with paths relative to
// dir and no compression.
func zipDirectory(dir string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.ToSlash(rel), Method: zip.Store})
		if err != nil {
			return errors.Wrapf(err, "adding %s to archive", rel)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing archive")
	}
	return buf.Bytes(), nil
}

func GetConfigs(ctx context.Context, s *ServerContext) ([]string, error) {
	resp, err := s.admin(ctx, configsAdminPath, "LIST", nil)
	if err != nil {
		return nil, err
	}
	return resp.ConfigSets, nil
}

func ConfigExists(ctx context.Context, s *ServerContext, name string) (bool, error) {
	configs, err := GetConfigs(ctx, s)
	if err != nil {
		return false, err
	}
	return contains(configs, name), nil
}

func DeleteConfig(ctx context.Context, s *ServerContext, name string) (*SolrResponse, error) {
	return s.admin(ctx, configsAdminPath, "DELETE", url.Values{"name": {name}})
}
