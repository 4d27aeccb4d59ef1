package actual

import (
	"context"
	"fmt"
	"os"

	"budgetsync/internal/log"
)

// FetchOptions selects the budget file and how to open it.
type FetchOptions struct {
	Password           string
	File               string // name or id
	EncryptionPassword string
	Dir                string // where db.sqlite is written
}

// FetchBudget logs in, downloads the selected file, decrypts it when needed
// and extracts its database into opts.Dir. It returns the database path.
func (c *Client) FetchBudget(ctx context.Context, opts FetchOptions) (string, error) {
	if err := c.Login(ctx, opts.Password); err != nil {
		return "", err
	}

	file, err := c.ResolveFile(ctx, opts.File)
	if err != nil {
		return "", err
	}
	c.logger.Info("Downloading budget",
		log.FieldFileID, file.FileID,
		"name", file.Name,
		"encrypted", file.Encrypted())

	data, err := c.Download(ctx, file.FileID)
	if err != nil {
		return "", err
	}

	if file.Encrypted() {
		data, err = c.decryptFile(ctx, file, opts.EncryptionPassword, data)
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return "", fmt.Errorf("create budget dir: %w", err)
	}
	path, err := ExtractDatabase(data, opts.Dir)
	if err != nil {
		return "", err
	}

	m := c.Metrics()
	c.logger.InfoContext(ctx, "Budget downloaded",
		log.FieldOperation, log.OpDownload,
		log.FieldFileID, file.FileID,
		log.FieldPath, path,
		"requests", m.TotalRequests,
		"failed_requests", m.FailedRequests)
	return path, nil
}

func (c *Client) decryptFile(ctx context.Context, file File, password string, data []byte) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: set ACTUAL_ENCRYPTION_PASSWORD to open %q", ErrEncrypted, file.Name)
	}

	info, err := c.FileInfo(ctx, file.FileID)
	if err != nil {
		return nil, err
	}
	if info.EncryptMeta == nil {
		return nil, fmt.Errorf("%w: server returned no encryption metadata", ErrEncrypted)
	}

	uk, err := c.UserKey(ctx, file.FileID)
	if err != nil {
		return nil, err
	}

	key := DeriveKey(password, uk.Salt)
	if err := VerifyKey(key, uk); err != nil {
		return nil, err
	}
	return Decrypt(key, *info.EncryptMeta, data)
}
