package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/uniqmaker/api/internal/domain"
	pfirestore "github.com/uniqmaker/api/internal/platform/firestore"
	"github.com/uniqmaker/api/internal/platform/pagination"
)

// listByCreatedAt pages a collection ordered on createdAt descending with the
// document id as tie-breaker. The continuation token encodes both sort keys.
func listByCreatedAt[D any, T any](
	ctx context.Context,
	base *pfirestore.BaseRepository[D],
	pager domain.Pagination,
	convert func(pfirestore.Document[D]) T,
	createdAt func(pfirestore.Document[D]) time.Time,
) (domain.CursorPage[T], error) {
	limit := pager.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := 0
	if limit > 0 {
		fetchLimit = limit + 1
	}

	docs, err := base.Query(ctx, func(query firestore.Query) firestore.Query {
		query = query.
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc)
		if token := strings.TrimSpace(pager.PageToken); token != "" {
			tokenTime, tokenID, err := decodeCursorToken(token)
			if err == nil {
				query = query.StartAfter(tokenTime, tokenID)
			}
		}
		if fetchLimit > 0 {
			query = query.Limit(fetchLimit)
		}
		return query
	})
	if err != nil {
		return domain.CursorPage[T]{}, err
	}

	nextToken := ""
	if fetchLimit > 0 && len(docs) == fetchLimit {
		last := docs[len(docs)-2]
		nextToken = encodeCursorToken(createdAt(last), last.ID)
		docs = docs[:len(docs)-1]
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		items = append(items, convert(doc))
	}
	return domain.CursorPage[T]{Items: items, NextPageToken: nextToken}, nil
}

func encodeCursorToken(createdAt time.Time, docID string) string {
	token, err := pagination.EncodeToken(pagination.Cursor{
		StartAfter: []any{createdAt.UTC().Format(time.RFC3339Nano), docID},
	})
	if err != nil {
		return ""
	}
	return token
}

func decodeCursorToken(token string) (time.Time, string, error) {
	cursor, err := pagination.DecodeToken(token)
	if err != nil {
		return time.Time{}, "", err
	}
	if len(cursor.StartAfter) != 2 {
		return time.Time{}, "", errors.New("invalid cursor shape")
	}
	rawTime, ok := cursor.StartAfter[0].(string)
	if !ok {
		return time.Time{}, "", errors.New("invalid cursor timestamp")
	}
	docID, ok := cursor.StartAfter[1].(string)
	if !ok {
		return time.Time{}, "", errors.New("invalid cursor document id")
	}
	ts, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return time.Time{}, "", err
	}
	return ts, docID, nil
}
