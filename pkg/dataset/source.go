package dataset

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"github.com/ruslano69/minionview/pkg/retry"
)

// Format: формат содержимого ассета
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatJSON   Format = "json"
)

// S3Config: параметры доступа к объектному хранилищу.
// Пустые ключи = цепочка учетных данных AWS по умолчанию.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // MinIO и другие S3-совместимые
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Source описывает, откуда берется ассет датасета:
// локальный путь, http(s):// URL или s3://bucket/key
type Source struct {
	Location string
	Checksum string // ожидаемый xxh3 (hex), пусто = без проверки
	S3       S3Config
	Timeout  time.Duration
	Retry    retry.Config

	// HTTPClient заменяется в тестах
	HTTPClient *http.Client
}

// Payload: загруженный и распакованный ассет
type Payload struct {
	Name     string // имя файла без суффикса сжатия
	Format   Format
	Data     []byte // распакованные данные, их же отдает /data/{asset}
	Checksum string // xxh3 ассета как он был загружен, до распаковки
	Fetched  time.Time
}

// Fetch загружает ассет один раз, проверяет контрольную сумму и распаковывает
func (s *Source) Fetch(ctx context.Context) (*Payload, error) {
	if s.Location == "" {
		return nil, fmt.Errorf("dataset location is empty")
	}

	raw, err := s.fetchRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.Location, err)
	}

	sum := Checksum(raw)
	if s.Checksum != "" && !strings.EqualFold(sum, s.Checksum) {
		return nil, fmt.Errorf("checksum mismatch for %s: expected %s, got %s", s.Location, s.Checksum, sum)
	}

	name := path.Base(strings.TrimRight(locationPath(s.Location), "/"))
	data, name, err := decompress(raw, name)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", s.Location, err)
	}

	format, err := detectFormat(name, data)
	if err != nil {
		return nil, err
	}

	return &Payload{
		Name:     name,
		Format:   format,
		Data:     data,
		Checksum: sum,
		Fetched:  time.Now(),
	}, nil
}

func (s *Source) fetchRaw(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(s.Location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // C:\ на Windows
		return os.ReadFile(s.Location)
	}

	switch u.Scheme {
	case "file":
		return os.ReadFile(u.Path)
	case "http", "https":
		return s.withRetry(ctx, func(ctx context.Context) ([]byte, error) { return s.fetchHTTP(ctx, u.String()) })
	case "s3":
		return s.withRetry(ctx, func(ctx context.Context) ([]byte, error) {
			return s.fetchS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
		})
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
}

func (s *Source) withRetry(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	cfg := s.Retry
	if cfg.MaxAttempts == 0 && cfg.Initial == 0 {
		cfg = retry.DefaultConfig()
	}
	r, err := retry.New(cfg)
	if err != nil {
		return nil, err
	}
	var out []byte
	err = r.Do(ctx, func(ctx context.Context) error {
		data, err := fn(ctx)
		if err != nil {
			return err
		}
		out = data
		return nil
	})
	return out, err
}

func (s *Source) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: s.timeout()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		// 4xx не исправится повтором
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (s *Source) fetchS3(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" || key == "" {
		return nil, retry.Permanent(fmt.Errorf("s3 location must be s3://bucket/key"))
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if s.S3.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.S3.Region))
	}
	if s.S3.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.S3.AccessKey, s.S3.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("load aws config: %w", err))
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *Source) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 60 * time.Second
}

// locationPath возвращает путь ассета без схемы и хоста
func locationPath(location string) string {
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		return u.Path
	}
	return location
}

// decompress снимает zstd или gzip по расширению имени
func decompress(raw []byte, name string) ([]byte, string, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, name, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		data, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, name, fmt.Errorf("failed to decompress zstd: %w", err)
		}
		return data, strings.TrimSuffix(name, ".zst"), nil

	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, name, fmt.Errorf("failed to open gzip: %w", err)
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, name, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		return data, strings.TrimSuffix(name, ".gz"), nil

	default:
		return raw, name, nil
	}
}

// sqliteMagic: заголовок файла базы SQLite
var sqliteMagic = []byte("SQLite format 3\x00")

func detectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".json":
		return FormatJSON, nil
	}
	// Расширение неизвестно, смотрим на содержимое
	if bytes.HasPrefix(data, sqliteMagic) {
		return FormatSQLite, nil
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %q", ErrUnsupported, name)
}

// Checksum вычисляет xxh3 данных (hex)
func Checksum(data []byte) string {
	h := xxh3.Hash(data)
	return hex.EncodeToString([]byte{
		byte(h >> 56), byte(h >> 48), byte(h >> 40), byte(h >> 32),
		byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h),
	})
}

// ResolveAssetPath строит путь к ассету относительно страницы:
// "/" -> "/data/<asset>", "/minions/" -> "/minions/data/<asset>"
func ResolveAssetPath(pagePath, asset string) string {
	asset = strings.TrimLeft(asset, "/")
	p := strings.TrimRight(pagePath, "/")
	if p == "" {
		return "/data/" + asset
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p + "/data/" + asset
}
