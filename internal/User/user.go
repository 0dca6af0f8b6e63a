/*
Package user contains the authenticated mobile-facing handlers: label scans,
scan history, the per-session nutrition chat, and the health profile that
drives personalization.
*/
package user

import (
	"context"
	"fmt"

	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/geminiservice"
	"NutriScan_V1.0/internal/scan"
	"NutriScan_V1.0/internal/storage"
	"NutriScan_V1.0/internal/utility"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	queries     *database.Queries
	aiClient    *geminiservice.Client
	imageStore  *storage.Service
	coordinator *scan.Coordinator

	// profileCache keeps the rendered profile summary per user so chat
	// requests skip the profile query. Entries are dropped on upsert.
	profileCache *lru.Cache[string, geminiservice.HealthProfileSummary]
)

// InitUserPackage is called by main to wire the handlers to their backing
// services.
func InitUserPackage(dbpool *pgxpool.Pool, ai *geminiservice.Client, images *storage.Service) error {
	queries = database.New(dbpool)
	aiClient = ai
	imageStore = images

	cache, err := lru.New[string, geminiservice.HealthProfileSummary](512)
	if err != nil {
		return fmt.Errorf("user: init profile cache: %w", err)
	}
	profileCache = cache

	coordinator = scan.NewCoordinator(
		profileSource{queries},
		imageStore,
		aiClient,
		sessionStore{queries},
		utility.ScanProgressNotifier{},
	)

	log.Info().Msg("User package initialized.")
	return nil
}

// profileSource adapts the query layer to the pipeline's ProfileSource.
type profileSource struct {
	q *database.Queries
}

func (s profileSource) GetHealthProfile(ctx context.Context, userID string) (*database.UserHealthProfile, error) {
	profile, err := s.q.GetUserHealthProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// sessionStore adapts the query layer to the pipeline's SessionStore.
type sessionStore struct {
	q *database.Queries
}

func (s sessionStore) PersistSession(ctx context.Context, userID, imageURL, productName, analysisText string) (string, error) {
	session, err := s.q.CreateScanSession(ctx, database.CreateScanSessionParams{
		UserID:       userID,
		ImageURL:     imageURL,
		ProductName:  productName,
		AnalysisText: analysisText,
	})
	if err != nil {
		return "", err
	}
	return session.SessionID, nil
}

func (s sessionStore) PersistMessage(ctx context.Context, sessionID, role, content string) (string, error) {
	msg, err := s.q.InsertChatMessage(ctx, database.InsertChatMessageParams{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		return "", err
	}
	return msg.MessageID, nil
}

// cachedProfileSummary returns the rendered profile summary, consulting the
// LRU first. A missing profile is cached as the empty summary so chats for
// profileless users don't requery every turn.
func cachedProfileSummary(ctx context.Context, userID string) geminiservice.HealthProfileSummary {
	if summary, ok := profileCache.Get(userID); ok {
		return summary
	}

	var summary geminiservice.HealthProfileSummary
	profile, err := queries.GetUserHealthProfile(ctx, userID)
	if err == nil {
		summary = geminiservice.BuildProfileSummary(&profile)
	}

	profileCache.Add(userID, summary)
	return summary
}
