package metadataRepo

import (
	"context"
	"fmt"
	"strings"
)

// WipeAll drops every metadata document and rebuilds the indexes. It exists
// for integration testing and refuses to run unless the database name marks
// it as a test database.
func (r *MongoMetadataRepo) WipeAll(ctx context.Context) error {
	if !strings.Contains(r.coll.Database().Name(), "test") {
		return fmt.Errorf("refusing to wipe non-test database %q", r.coll.Database().Name())
	}
	if err := r.coll.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop metadata collection: %w", err)
	}
	return r.ensureIndexes()
}
