package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/internal/dto"
	"github.com/InstiTrack/institute_ledger/internal/utils/accounting"
	"github.com/google/uuid"
)

// PostingService implements the posting engine. All monetary effect
// flows through here: nothing else writes journals.
type PostingService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountRepository
	publisher   portssvc.EventPublisher
}

var _ portssvc.PostingSvc = (*PostingService)(nil)

// NewPostingService creates a PostingService. The publisher may be nil,
// in which case no outbound events are emitted.
func NewPostingService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountRepository, publisher portssvc.EventPublisher) *PostingService {
	return &PostingService{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// resolveLines validates the request lines structurally, resolves
// account codes to active accounts and returns the domain lines.
func (s *PostingService) resolveLines(ctx context.Context, journalID string, reqLines []dto.CreateJournalLineRequest, actor domain.Actor, now time.Time) ([]domain.JournalLine, error) {
	if len(reqLines) < 2 {
		return nil, fmt.Errorf("a journal needs at least two lines: %w", apperrors.ErrInvalidJournal)
	}

	codes := make([]string, 0, len(reqLines))
	seen := make(map[string]struct{}, len(reqLines))
	for _, l := range reqLines {
		if _, ok := seen[l.AccountCode]; !ok {
			seen[l.AccountCode] = struct{}{}
			codes = append(codes, l.AccountCode)
		}
	}

	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve account codes")
		return nil, err
	}

	lines := make([]domain.JournalLine, 0, len(reqLines))
	for i, l := range reqLines {
		account, ok := accounts[l.AccountCode]
		if !ok {
			return nil, fmt.Errorf("line %d references unknown account code %s: %w", i+1, l.AccountCode, apperrors.ErrInvalidJournal)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("line %d references inactive account %s: %w", i+1, l.AccountCode, apperrors.ErrInvalidJournal)
		}

		line := domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountID:   account.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			CostCenter:  l.CostCenter,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor.UserID,
				LastUpdatedAt: now,
				LastUpdatedBy: actor.UserID,
			},
		}
		if l.Source != nil {
			line.Source = &domain.SourceRef{Kind: l.Source.Kind, ID: l.Source.ID}
		}
		if err := accounting.ValidateLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *PostingService) newJournal(req dto.CreateJournalRequest, status domain.JournalStatus, actor domain.Actor, now time.Time) domain.Journal {
	branchID := req.BranchID
	if branchID == "" {
		branchID = actor.BranchID
	}
	return domain.Journal{
		JournalID:   uuid.NewString(),
		BranchID:    branchID,
		JournalDate: req.Date,
		Description: req.Description,
		Status:      status,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
}

// CreateDraft validates structure and saves a DRAFT journal. Drafts may
// be imbalanced; balance is enforced only at posting time.
func (s *PostingService) CreateDraft(ctx context.Context, req dto.CreateJournalRequest, actor domain.Actor) (*domain.Journal, error) {
	now := time.Now()
	journal := s.newJournal(req, domain.Draft, actor, now)

	lines, err := s.resolveLines(ctx, journal.JournalID, req.Lines, actor, now)
	if err != nil {
		return nil, err
	}
	journal.Lines = lines

	if err := s.journalRepo.SaveJournal(ctx, journal, lines); err != nil {
		s.LogError(ctx, err, "Failed to save draft journal", slog.String("journal_id", journal.JournalID))
		return nil, err
	}

	s.LogInfo(ctx, "Draft journal created", slog.String("journal_id", journal.JournalID))
	return &journal, nil
}

// Post transitions a draft to POSTED after checking the balance
// invariant. An imbalanced draft stays a draft.
func (s *PostingService) Post(ctx context.Context, journalID string, actor domain.Actor) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	switch journal.Status {
	case domain.Posted:
		return nil, fmt.Errorf("journal %s: %w", journalID, apperrors.ErrAlreadyPosted)
	case domain.Void:
		return nil, fmt.Errorf("journal %s: %w", journalID, apperrors.ErrAlreadyVoid)
	}

	// Fast-fail on an imbalanced draft before claiming a sequence slot.
	// The authoritative check runs again inside MarkPosted's
	// transaction, under the row lock, so a draft edit racing this read
	// cannot post imbalanced.
	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if err := accounting.CheckBalanced(lines); err != nil {
		return nil, err
	}

	posted, err := s.journalRepo.MarkPosted(ctx, journalID, actor.UserID, time.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to mark journal posted", slog.String("journal_id", journalID))
		return nil, err
	}
	if len(posted.Lines) == 0 {
		posted.Lines = lines
	}

	s.LogInfo(ctx, "Journal posted", slog.String("journal_id", journalID), slog.String("reference", posted.Reference))
	s.publishPosted(ctx, posted)
	return posted, nil
}

// Void reverses a posted journal with a mirror journal and marks the
// original VOID. Posted lines are never mutated or deleted.
func (s *PostingService) Void(ctx context.Context, journalID string, reason string, actor domain.Actor) (*domain.Journal, error) {
	if reason == "" {
		return nil, fmt.Errorf("void reason is required: %w", apperrors.ErrValidation)
	}

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if journal.Status != domain.Posted {
		if journal.Status == domain.Void {
			return nil, fmt.Errorf("journal %s: %w", journalID, apperrors.ErrAlreadyVoid)
		}
		return nil, fmt.Errorf("journal %s: %w", journalID, apperrors.ErrNotPosted)
	}
	if journal.ReversingJournalID != nil {
		return nil, fmt.Errorf("journal %s is already reversed by %s: %w", journalID, *journal.ReversingJournalID, apperrors.ErrAlreadyVoid)
	}

	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reversing := domain.Journal{
		JournalID:         uuid.NewString(),
		BranchID:          journal.BranchID,
		JournalDate:       now,
		Description:       fmt.Sprintf("Reversal of %s: %s", journal.Reference, reason),
		Status:            domain.Posted,
		OriginalJournalID: &journal.JournalID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	reversedLines := accounting.ReversedLines(lines)
	for i := range reversedLines {
		reversedLines[i].LineID = uuid.NewString()
		reversedLines[i].JournalID = reversing.JournalID
		reversedLines[i].AuditFields = reversing.AuditFields
	}

	if err := s.journalRepo.SaveReversal(ctx, reversing, reversedLines, journal.JournalID, reason, actor.UserID, now); err != nil {
		s.LogError(ctx, err, "Failed to save reversal", slog.String("journal_id", journalID))
		return nil, err
	}
	reversing.Lines = reversedLines

	s.LogInfo(ctx, "Journal voided", slog.String("journal_id", journalID), slog.String("reversing_journal_id", reversing.JournalID))
	return &reversing, nil
}

// PostDirect creates and posts a journal in one transactional step.
// With an idempotency key, replays return the originally posted journal.
func (s *PostingService) PostDirect(ctx context.Context, req dto.CreateJournalRequest, idempotencyKey *string, actor domain.Actor) (*domain.Journal, error) {
	now := time.Now()
	journal := s.newJournal(req, domain.Posted, actor, now)
	journal.IdempotencyKey = idempotencyKey

	lines, err := s.resolveLines(ctx, journal.JournalID, req.Lines, actor, now)
	if err != nil {
		return nil, err
	}
	if err := accounting.CheckBalanced(lines); err != nil {
		return nil, err
	}
	journal.Lines = lines

	err = s.journalRepo.SaveJournal(ctx, journal, lines)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicatePosting) && idempotencyKey != nil {
			// Someone already posted under this key. Return theirs,
			// lines included, same shape as a fresh post.
			existing, findErr := s.journalRepo.FindJournalByIdempotencyKey(ctx, *idempotencyKey)
			if findErr != nil {
				s.LogError(ctx, findErr, "Failed to load journal for duplicate idempotency key", slog.String("idempotency_key", *idempotencyKey))
				return nil, findErr
			}
			existingLines, findErr := s.journalRepo.FindLinesByJournalID(ctx, existing.JournalID)
			if findErr != nil {
				return nil, findErr
			}
			existing.Lines = existingLines
			s.LogInfo(ctx, "Duplicate posting absorbed", slog.String("idempotency_key", *idempotencyKey), slog.String("journal_id", existing.JournalID))
			return existing, nil
		}
		s.LogError(ctx, err, "Failed to post journal", slog.String("journal_id", journal.JournalID))
		return nil, err
	}

	// SaveJournal assigned the sequence reference in its transaction;
	// reload the persisted row so callers see it.
	posted, err := s.journalRepo.FindJournalByID(ctx, journal.JournalID)
	if err != nil {
		return nil, err
	}
	posted.Lines = lines

	s.LogInfo(ctx, "Journal posted directly", slog.String("journal_id", posted.JournalID), slog.String("reference", posted.Reference))
	s.publishPosted(ctx, posted)
	return posted, nil
}

func (s *PostingService) GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal", slog.String("journal_id", journalID))
		}
		return nil, err
	}
	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	journal.Lines = lines
	return journal, nil
}

func (s *PostingService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	filter := portsrepo.ListJournalsFilter{
		BranchID:  params.BranchID,
		From:      params.From,
		To:        params.To,
		Status:    params.Status,
		Limit:     params.Limit,
		NextToken: params.NextToken,
	}
	journals, nextToken, err := s.journalRepo.ListJournals(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journals")
		return nil, err
	}

	resp := &dto.ListJournalsResponse{
		Journals:  make([]dto.JournalResponse, 0, len(journals)),
		NextToken: nextToken,
	}
	for i := range journals {
		if params.IncludeLines {
			lines, err := s.journalRepo.FindLinesByJournalID(ctx, journals[i].JournalID)
			if err != nil {
				return nil, err
			}
			journals[i].Lines = lines
		}
		resp.Journals = append(resp.Journals, dto.ToJournalResponse(&journals[i]))
	}
	return resp, nil
}

// publishPosted emits the outbound event. Publishing is best effort:
// the journal is already durable, a broker hiccup must not unwind it.
func (s *PostingService) publishPosted(ctx context.Context, journal *domain.Journal) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJournalPosted(ctx, journal); err != nil {
		s.LogError(ctx, err, "Failed to publish journal.posted event", slog.String("journal_id", journal.JournalID))
	}
}
