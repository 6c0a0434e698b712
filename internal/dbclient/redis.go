package dbclient

import (
	"context"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"qnotes/internal/domain"

	"github.com/redis/go-redis/v9"
)

// redis://[password@]host:port/db
var redisURI = regexp.MustCompile(`^redis://(?:(.*)@)?([^:/@\s]+):(\d+)/(\d+)$`)

// RedisSource feeds the command to redis-cli on stdin, so "KEYS *"
// reaches the server as one command rather than a single quoted word.
type RedisSource struct {
	Binary string
}

func (RedisSource) Name() domain.BackendKind { return domain.BackendRedis }

func (RedisSource) DefaultQuery() string { return "KEYS *" }

func (RedisSource) Matches(uri string) bool {
	return strings.HasPrefix(uri, "redis://")
}

// ParseTarget accepts both "pw@" and the URL-style ":pw@" userinfo.
func (RedisSource) ParseTarget(uri string) (domain.Target, error) {
	m := redisURI.FindStringSubmatch(uri)
	if m == nil {
		return domain.Target{}, invalidURI("Redis")
	}
	return domain.Target{
		Password: strings.TrimPrefix(m[1], ":"),
		Host:     m[2],
		Port:     m[3],
		Database: m[4],
	}, nil
}

func (s RedisSource) BuildCommand(uri, query string) (string, error) {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return "", err
	}
	parts := []string{
		"printf", quote(`%s\n`), quote(query), "|",
		quote(s.Binary),
		"-h", quote(t.Host),
		"-p", quote(t.Port),
	}
	if t.Password != "" {
		parts = append(parts, "-a", quote(t.Password), "--no-auth-warning")
	}
	parts = append(parts, "-n", quote(t.Database), "--json")
	return commandLine(parts...), nil
}

func (s RedisSource) Ping(ctx context.Context, uri string) error {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return err
	}
	db, _ := strconv.Atoi(t.Database)
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(t.Host, t.Port),
		Password:    t.Password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
