package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"healthloop/internal/model"
	"healthloop/internal/repository"
	"healthloop/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	LeaderboardKey         = "leaderboard:total_points"
	maxLeaderboardLimit    = 100
	defaultLeaderboardSize = 10
	rebuildBatchSize       = 500
)

// LeaderboardEntry 排行榜中的一行，积分相同名次相同
type LeaderboardEntry struct {
	Rank              int64  `json:"rank"`
	AccountID         string `json:"account_id"`
	Name              string `json:"name"`
	TotalPointsEarned int64  `json:"total_points_earned"`
	Level             string `json:"level"`
}

// LeaderboardService 按累计积分排名；redis 不可用时直接查库
type LeaderboardService struct {
	rdb         *redis.Client
	accountRepo *repository.AccountRepository
	log         *zap.Logger
}

func NewLeaderboardService(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *LeaderboardService {
	return &LeaderboardService{
		rdb:         rdb,
		accountRepo: repository.NewAccountRepository(db),
		log:         log.Named("leaderboard"),
	}
}

// Update 写入账户最新的累计积分（绝对值，重复写入无副作用）
func (s *LeaderboardService) Update(ctx context.Context, accountID string, totalPointsEarned int64) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.ZAdd(ctx, LeaderboardKey, &redis.Z{
		Score:  float64(totalPointsEarned),
		Member: accountID,
	}).Err()
}

func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	if s.rdb != nil {
		entries, err := s.topFromRedis(ctx, limit)
		if err == nil {
			return entries, nil
		}
		s.log.Warn("读取 redis 排行榜失败，改为查库", zap.Error(err))
	}
	return s.topFromDB(ctx, limit)
}

func (s *LeaderboardService) topFromRedis(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, LeaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		// 缓存尚未建立
		return nil, redis.Nil
	}

	ids := make([]string, 0, len(zs))
	for _, z := range zs {
		ids = append(ids, z.Member.(string))
	}
	accounts, err := s.accountRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(zs))
	var prevScore float64
	var rank int64
	for i, z := range zs {
		if i == 0 || z.Score != prevScore {
			rank = int64(i) + 1
			prevScore = z.Score
		}
		id := z.Member.(string)
		total := int64(z.Score)
		entry := &LeaderboardEntry{
			Rank:              rank,
			AccountID:         id,
			TotalPointsEarned: total,
			Level:             model.LevelFor(total).Name,
		}
		if a, ok := accounts[id]; ok {
			entry.Name = a.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *LeaderboardService) topFromDB(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	accounts, err := s.accountRepo.ListTop(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(accounts))
	var rank int64
	for i, a := range accounts {
		if i == 0 || a.TotalPointsEarned != accounts[i-1].TotalPointsEarned {
			rank = int64(i) + 1
		}
		entries = append(entries, &LeaderboardEntry{
			Rank:              rank,
			AccountID:         a.ID,
			Name:              a.Name,
			TotalPointsEarned: a.TotalPointsEarned,
			Level:             model.LevelFor(a.TotalPointsEarned).Name,
		})
	}
	return entries, nil
}

// RankOf 名次 = 累计积分严格高于自己的账户数 + 1
func (s *LeaderboardService) RankOf(ctx context.Context, accountID string) (*LeaderboardEntry, error) {
	account, err := s.accountRepo.GetByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}

	entry := &LeaderboardEntry{
		AccountID:         account.ID,
		Name:              account.Name,
		TotalPointsEarned: account.TotalPointsEarned,
		Level:             model.LevelFor(account.TotalPointsEarned).Name,
	}

	if s.rdb != nil {
		above, err := s.rdb.ZCount(ctx, LeaderboardKey,
			"("+strconv.FormatInt(account.TotalPointsEarned, 10), "+inf").Result()
		if err == nil {
			entry.Rank = above + 1
			return entry, nil
		}
		s.log.Warn("读取 redis 排名失败，改为查库", zap.Error(err))
	}

	above, err := s.accountRepo.CountAbove(ctx, account.TotalPointsEarned)
	if err != nil {
		return nil, err
	}
	entry.Rank = above + 1
	return entry, nil
}

// Rebuild 从账户表重建排行榜，先写临时 key 再 RENAME 原子替换
func (s *LeaderboardService) Rebuild(ctx context.Context) (int, error) {
	if s.rdb == nil {
		return 0, nil
	}

	tmpKey := LeaderboardKey + ":rebuild:" + idgen.NewUUID()
	count := 0
	err := s.accountRepo.Scan(ctx, rebuildBatchSize, func(batch []*model.Account) error {
		if len(batch) == 0 {
			return nil
		}
		members := make([]*redis.Z, 0, len(batch))
		for _, a := range batch {
			members = append(members, &redis.Z{Score: float64(a.TotalPointsEarned), Member: a.ID})
		}
		if err := s.rdb.ZAdd(ctx, tmpKey, members...).Err(); err != nil {
			return err
		}
		count += len(batch)
		return nil
	})
	if err != nil {
		s.rdb.Del(context.WithoutCancel(ctx), tmpKey)
		return 0, fmt.Errorf("重建排行榜失败: %w", err)
	}

	if count == 0 {
		if err := s.rdb.Del(ctx, LeaderboardKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return 0, err
		}
		return 0, nil
	}
	if err := s.rdb.Rename(ctx, tmpKey, LeaderboardKey).Err(); err != nil {
		return 0, fmt.Errorf("替换排行榜失败: %w", err)
	}
	return count, nil
}
