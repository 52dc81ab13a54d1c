package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Dedup keys expire after a day; a post older than the collection window
// would be dropped anyway.
const processedTTLSeconds = 86400

// ValkeyClient tracks which posts have already been analyzed so successive
// runs for the same company do not double-count them. It is an optional
// collaborator: callers must tolerate a nil client.
type ValkeyClient struct {
	Client valkey.Client
}

func NewValkeyClient(addr, password string) (*ValkeyClient, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{addr},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	})
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if res := client.Do(ctx, client.B().Ping().Build()); res.Error() != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", res.Error())
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey")
	return &ValkeyClient{Client: client}, nil
}

func (vc *ValkeyClient) Close() {
	if vc != nil && vc.Client != nil {
		vc.Client.Close()
	}
}

func processedKey(company, source string) string {
	return fmt.Sprintf("feedback:processed:%s:%s", strings.ToLower(company), strings.ToLower(source))
}

// MarkProcessed records a post id for (company, source) with a 24h TTL.
func (vc *ValkeyClient) MarkProcessed(ctx context.Context, company, source, postID string) error {
	key := processedKey(company, source)
	completed := []valkey.Completed{
		vc.Client.B().Sadd().Key(key).Member(postID).Build(),
		vc.Client.B().Expire().Key(key).Seconds(processedTTLSeconds).Build(),
	}

	for _, res := range vc.doMultiWithRetry(ctx, completed, 3) {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}

// IsProcessed reports whether a post was already analyzed in a recent run.
// Any Valkey failure reads as "not processed": dedup degrades, the run
// continues.
func (vc *ValkeyClient) IsProcessed(ctx context.Context, company, source, postID string) bool {
	res := vc.doWithRetry(ctx, vc.Client.B().Sismember().Key(processedKey(company, source)).Member(postID).Build(), 3)
	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

func (vc *ValkeyClient) doMultiWithRetry(ctx context.Context, completed []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.Client.DoMulti(ctx, completed...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] DoMulti failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				break
			}
		}
		if !hasErr {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}

	return results
}

func (vc *ValkeyClient) doWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, completed)
		if result.Error() == nil {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		time.Sleep(250 * time.Millisecond)
	}

	return result
}
