package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when a case document does not exist
var ErrNotFound = goerr.New("case not found")

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{
		client: client,
	}
}

func (r *caseRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_cases"
	}
	return "cases"
}

func (r *caseRepository) doc(id types.CaseID) *firestore.DocumentRef {
	return r.client.Collection(r.collection()).Doc(id.String())
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	created := c.Clone()
	if created.ID == "" {
		created.ID = types.NewCaseID()
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.GeneratedQueries == nil {
		created.GeneratedQueries = []string{}
	}
	if created.CollectedData == nil {
		created.CollectedData = []model.CollectedEntry{}
	}

	if _, err := r.doc(created.ID).Set(ctx, created); err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *caseRepository) Get(ctx context.Context, id types.CaseID) (*model.Case, error) {
	docSnap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var c model.Case
	if err := docSnap.DataTo(&c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}

	return &c, nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.Case, error) {
	iter := r.client.Collection(r.collection()).Documents(ctx)
	defer iter.Stop()

	var cases []*model.Case
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases")
		}

		var c model.Case
		if err := docSnap.DataTo(&c); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
		}

		cases = append(cases, &c)
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].CreatedAt.After(cases[j].CreatedAt)
	})

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, id types.CaseID, patch model.CasePatch) (*model.Case, error) {
	var updated *model.Case

	docRef := r.doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V("id", id))
		}

		var c model.Case
		if err := docSnap.DataTo(&c); err != nil {
			return goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
		}

		patch.Apply(&c)
		c.UpdatedAt = time.Now().UTC()
		updated = &c

		return tx.Set(docRef, &c)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *caseRepository) Delete(ctx context.Context, id types.CaseID) error {
	// Firestore deletes are idempotent, an absent document is not an error
	if _, err := r.doc(id).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete case", goerr.V("id", id))
	}
	return nil
}
