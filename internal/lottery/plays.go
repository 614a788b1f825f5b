package lottery

import (
	"context"
	"fmt"

	"lottery/internal/numbers"
	"lottery/internal/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Plays lists the recorded plays of player, newest first.
func (e *Engine) Plays(ctx context.Context, player solana.PublicKey) ([]*PlayResult, error) {
	records, err := e.cfg.Storage.GetPlaysByPlayer(ctx, player.String())
	if err != nil {
		return nil, err
	}

	results := make([]*PlayResult, 0, len(records))
	for _, record := range records {
		result, err := playFromRecord(record)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func playFromRecord(record *storage.PlayRecord) (*PlayResult, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("play %s: %w", record.ID, err)
	}
	player, err := solana.PublicKeyFromBase58(record.Player)
	if err != nil {
		return nil, fmt.Errorf("play %s: %w", record.ID, err)
	}
	sequence, err := numbers.FromBytes(record.Numbers)
	if err != nil {
		return nil, fmt.Errorf("play %s: %w", record.ID, err)
	}

	return &PlayResult{
		ID:       id,
		Player:   player,
		Kind:     record.Kind,
		Numbers:  sequence,
		Won:      record.Tier >= 0,
		Tier:     record.Tier,
		Prize:    record.Prize,
		Charged:  record.Charged,
		PlayedAt: record.PlayedAt,
	}, nil
}
