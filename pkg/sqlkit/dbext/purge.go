package dbext

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// SelectAndDeleteWhere selects idColumn ("id" when empty) from table, optionally filtered by
// where, and deletes the matching rows DeleteBatchSize ids at a time using quoted IN lists.
//
// The select and each batch are separate statements and no transaction is opened, so a failure
// part way leaves the earlier batches deleted. Run it on a transaction for all or nothing.
func (h *Helper) SelectAndDeleteWhere(ctx context.Context, table, idColumn, where string) error {
	if idColumn == "" {
		idColumn = "id"
	}

	ctx, span := h.tracer.Start(ctx, "dbext.SelectAndDeleteWhere", trace.WithAttributes(
		attribute.String("db.sql.table", table),
		attribute.String("sqlkit.id_column", idColumn),
		attribute.Int("sqlkit.batch_size", h.config.DeleteBatchSize),
	))
	defer span.End()

	quotedID := h.builder.QuoteIdentifier(idColumn)

	ids, err := h.FetchCol(ctx, h.builder.BuildSelectColumn(quotedID, table, where))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	span.SetAttributes(attribute.Int("sqlkit.ids", len(ids)))

	var limiter *rate.Limiter
	if h.config.DeleteBatchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.config.DeleteBatchRate), 1)
	}

	var deleted int64

	for batch, start := 0, 0; start < len(ids); batch, start = batch+1, start+h.config.DeleteBatchSize {
		end := min(start+h.config.DeleteBatchSize, len(ids))

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())

				return err
			}
		}

		n, err := h.deleteBatch(ctx, table, quotedID, ids[start:end], batch)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return err
		}

		deleted += n
	}

	if l := h.log(ctx); l != nil && len(ids) > 0 {
		l.Infof("deleted %d of %d selected rows from %s", deleted, len(ids), table)
	}

	return nil
}

func (h *Helper) deleteBatch(ctx context.Context, table, quotedID string, ids []any, batch int) (int64, error) {
	ctx, span := h.tracer.Start(ctx, "dbext.DeleteBatch", trace.WithAttributes(
		attribute.Int("sqlkit.batch", batch),
		attribute.Int("sqlkit.ids", len(ids)),
	))
	defer span.End()

	in, err := h.builder.BuildInList(quotedID, ids)
	if err != nil {
		span.RecordError(err)

		return 0, &QueryError{Query: "DELETE FROM " + table, Err: err}
	}

	n, err := h.DeleteWhere(ctx, table, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return 0, err
	}

	h.increment(ctx, "app_sql_delete_batches", "table", table)

	if h.metrics != nil {
		h.metrics.RecordHistogram(ctx, "app_sql_delete_batch_rows", float64(n), "table", table)
	}

	if l := h.log(ctx); l != nil {
		l.Debugf("batch %d deleted %d rows from %s", batch, n, table)
	}

	return n, nil
}
