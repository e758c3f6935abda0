package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fabianshop/storefront/pkg/adapters/fs"
	githubstore "github.com/fabianshop/storefront/pkg/adapters/github"
	"github.com/fabianshop/storefront/pkg/adapters/memory"
	"github.com/fabianshop/storefront/pkg/core"
)

// Open creates the catalog store selected by the options and runs its
// initialization when it has one.
// The 'uri' argument is adapter-specific (a directory for "fs", "owner/repo" for "github").
func Open(uri string, opts ...Option) (core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	// 1. Check for injected store
	if o.store != nil {
		return o.store, nil
	}

	// 2. Build based on Adapter
	var store core.Store
	var err error

	switch o.adapter {
	case "fs":
		store, err = initFS(uri, o)
	case "github":
		store, err = initGitHub(uri, o)
	case "memory":
		readOnly, _ := o.config["read_only"].(bool)
		store = memory.New(memory.WithReadOnly(readOnly))
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err != nil {
		return nil, err
	}

	// 3. Run Initialization
	if initializer, ok := store.(core.Initializer); ok {
		if err := initializer.Initialize(context.Background()); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// initFS handles the initialization logic for the Filesystem adapter
func initFS(path string, o *options) (core.Store, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	gitless, _ := o.config["gitless"].(bool)
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	file, _ := o.config["file"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	isReadOnly, _ := o.config["read_only"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Read-only stores cannot damage anything; explicit opt-outs are trusted.
	bypassSafety := isReadOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveCatalogPath(path, useTemp)

	if o.logger != nil && useTemp && resolvedPath != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	// Versioning follows the directory unless configured explicitly.
	if _, ok := o.config["gitless"]; !ok {
		if _, err := os.Stat(filepath.Join(resolvedPath, ".git")); err == nil {
			gitless = false
		} else {
			// A fresh directory gets git when we create it; an existing
			// catalog without .git stays plain.
			_, catalogErr := os.Stat(filepath.Join(resolvedPath, fileOrDefault(file)))
			gitless = !autoInit || catalogErr == nil || !fs.IsGitInstalled()
		}
		if gitless && o.logger != nil {
			o.logger.Debug("auto-detected gitless mode", "reason", ".git missing")
		}
	}

	repoConfig := fs.Config{
		Path:         resolvedPath,
		File:         file,
		AutoInit:     autoInit,
		Gitless:      gitless,
		MustExist:    mustExist || isReadOnly,
		ReadOnly:     isReadOnly,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	}

	return fs.NewRepository(repoConfig), nil
}

// initGitHub builds the remote adapter. It performs no network calls.
func initGitHub(repo string, o *options) (core.Store, error) {
	owner, name, err := githubstore.ParseRepo(repo)
	if err != nil {
		return nil, err
	}
	token, _ := o.config["github_token"].(string)
	branch, _ := o.config["github_branch"].(string)
	path, _ := o.config["github_path"].(string)
	baseURL, _ := o.config["github_base_url"].(string)

	return githubstore.New(githubstore.Config{
		Owner:   owner,
		Repo:    name,
		Branch:  branch,
		Path:    path,
		Token:   token,
		BaseURL: baseURL,
		Logger:  o.logger,
	})
}

func fileOrDefault(file string) string {
	if file == "" {
		return fs.DefaultFile
	}
	return file
}
