package mapping

import (
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/InstiTrack/institute_ledger/internal/models"
)

// ToModelJournal converts a domain Journal to a model Journal.
func ToModelJournal(d domain.Journal) models.Journal {
	return models.Journal{
		JournalID:          d.JournalID,
		Reference:          d.Reference,
		BranchID:           d.BranchID,
		JournalDate:        d.JournalDate,
		Description:        d.Description,
		Status:             models.JournalStatus(d.Status),
		IdempotencyKey:     d.IdempotencyKey,
		OriginalJournalID:  d.OriginalJournalID,
		ReversingJournalID: d.ReversingJournalID,
		VoidReason:         d.VoidReason,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournal converts a model Journal to a domain Journal.
func ToDomainJournal(m models.Journal) domain.Journal {
	return domain.Journal{
		JournalID:          m.JournalID,
		Reference:          m.Reference,
		BranchID:           m.BranchID,
		JournalDate:        m.JournalDate,
		Description:        m.Description,
		Status:             domain.JournalStatus(m.Status),
		IdempotencyKey:     m.IdempotencyKey,
		OriginalJournalID:  m.OriginalJournalID,
		ReversingJournalID: m.ReversingJournalID,
		VoidReason:         m.VoidReason,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine.
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	m := models.JournalLine{
		LineID:      d.LineID,
		JournalID:   d.JournalID,
		AccountID:   d.AccountID,
		Debit:       d.Debit,
		Credit:      d.Credit,
		Description: d.Description,
		CostCenter:  d.CostCenter,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
	if d.Source != nil {
		kind := string(d.Source.Kind)
		id := d.Source.ID
		m.SourceKind = &kind
		m.SourceID = &id
	}
	return m
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine.
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	d := domain.JournalLine{
		LineID:      m.LineID,
		JournalID:   m.JournalID,
		AccountID:   m.AccountID,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Description: m.Description,
		CostCenter:  m.CostCenter,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if m.SourceKind != nil && m.SourceID != nil {
		d.Source = &domain.SourceRef{Kind: domain.SourceKind(*m.SourceKind), ID: *m.SourceID}
	}
	return d
}

// ToDomainJournalLineSlice converts a slice of model lines to domain lines.
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalLine(m)
	}
	return ds
}
