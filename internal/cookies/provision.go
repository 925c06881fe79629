package cookies

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	storage_go "github.com/supabase-community/storage-go"

	"tubepost/internal/config"
)

// Source identifies where the cookie file came from during provisioning.
type Source string

const (
	SourceRemote Source = "remote"
	SourceInline Source = "inline"
	SourceLocal  Source = "local"
	SourceNone   Source = "none"
)

// Provision materializes the cookie file at startup. Precedence:
// remote blob, then inline base64, then a pre-existing local file. Each
// losing source is logged and skipped; a source that is configured but
// broken falls through to the next one rather than aborting startup.
func Provision(ctx context.Context, cfg config.CookiesConfig, store *Store, log zerolog.Logger) (Source, error) {
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" && cfg.Bucket != "" && cfg.Object != "" {
		if err := fetchRemote(ctx, cfg, store); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.Bucket).Str("object", cfg.Object).
				Msg("remote cookie blob unavailable, trying next source")
		} else {
			log.Info().Str("bucket", cfg.Bucket).Str("object", cfg.Object).
				Msg("cookies provisioned from remote blob")
			return SourceRemote, nil
		}
	}

	if cfg.InlineB64 != "" {
		if err := writeInline(cfg.InlineB64, store); err != nil {
			log.Warn().Err(err).Msg("inline cookie payload invalid, trying next source")
		} else {
			log.Info().Msg("cookies provisioned from inline payload")
			return SourceInline, nil
		}
	}

	if store.Exists() {
		if _, err := store.Load(); err != nil {
			return SourceNone, fmt.Errorf("existing cookie file unusable: %w", err)
		}
		log.Info().Str("path", store.Path()).Msg("using existing cookie file")
		return SourceLocal, nil
	}

	log.Info().Msg("no cookie source configured, continuing without cookies")
	return SourceNone, nil
}

func fetchRemote(ctx context.Context, cfg config.CookiesConfig, store *Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	baseURL := strings.TrimSuffix(cfg.SupabaseURL, "/")
	if !strings.HasSuffix(baseURL, "/storage/v1") {
		baseURL += "/storage/v1"
	}
	client := storage_go.NewClient(baseURL, cfg.SupabaseKey, nil)
	data, err := client.DownloadFile(cfg.Bucket, cfg.Object)
	if err != nil {
		return fmt.Errorf("download cookie blob: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("cookie blob %s/%s is empty", cfg.Bucket, cfg.Object)
	}
	return store.WriteRaw(data)
}

func writeInline(encoded string, store *Store) error {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return fmt.Errorf("decode inline cookies: %w", err)
	}
	return store.WriteRaw(data)
}
