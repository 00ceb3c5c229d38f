// Package neo4j persists typed knowledge graph fragments in Neo4j.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/topiclens/backend/pkg/graph"
)

// Store wraps a Neo4j driver for fragment upserts. All writes are
// MERGE-based so re-ingesting the same content never duplicates nodes
// or edges.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// Params configures a Store connection.
type Params struct {
	URI      string
	Username string
	Password string
	Database string
}

// Open connects to Neo4j and verifies connectivity.
func Open(ctx context.Context, params Params) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}

	database := params.Database
	if database == "" {
		database = "neo4j"
	}

	return &Store{driver: driver, database: database}, nil
}

// identityLabel is the base label every node carries. The name-derived
// id is unique across the whole ontology, not per label, so the same
// entity merges even when two documents disagree on its label.
const identityLabel = "Entity"

// ApplyConstraints creates the uniqueness constraint on the shared
// identity label. Uses IF NOT EXISTS, safe to run on every startup.
func (s *Store) ApplyConstraints(ctx context.Context) error {
	query := fmt.Sprintf(
		"CREATE CONSTRAINT entity_id_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
		identityLabel,
	)
	if _, err := neo4j.ExecuteQuery(
		ctx, s.driver, query, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	); err != nil {
		return fmt.Errorf("failed to create identity constraint: %w", err)
	}
	return nil
}

// nodeMergeQuery merges by the shared identity label so the merge
// pattern is independent of the ontology label, which is applied on
// top. The label is interpolated into the query text; that is safe
// only because it comes from the closed ontology and everything else
// is passed as parameters.
func nodeMergeQuery(label string) string {
	return fmt.Sprintf(`
		MERGE (n:%s {id: $id})
		SET n:%s
		SET n.name = $name,
		    n.source_url = $source_url
		SET n.description = CASE
		    WHEN $description <> '' THEN $description
		    ELSE coalesce(n.description, '')
		END`, identityLabel, label)
}

// edgeMergeQuery matches endpoints through the identity label and
// merges the edge by the (source, type, target) triple. Same
// interpolation rule as nodeMergeQuery.
func edgeMergeQuery(relationType string) string {
	return fmt.Sprintf(`
		MATCH (a:%s {id: $source_id})
		MATCH (b:%s {id: $target_id})
		MERGE (a)-[r:%s]->(b)
		SET r.description = $description`, identityLabel, identityLabel, relationType)
}

// Upsert writes a fragment in a single write transaction. Re-ingesting
// the same entity or relation never duplicates it, regardless of how
// later documents label the entity.
func (s *Store) Upsert(ctx context.Context, fragment graph.Fragment) error {
	if fragment.Empty() {
		return nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range fragment.Nodes {
			if _, err := tx.Run(ctx, nodeMergeQuery(node.Label), map[string]any{
				"id":          node.ID,
				"name":        node.Name,
				"description": node.Description,
				"source_url":  node.SourceURL,
			}); err != nil {
				return nil, fmt.Errorf("failed to merge node %s: %w", node.ID, err)
			}
		}

		for _, edge := range fragment.Edges {
			if _, err := tx.Run(ctx, edgeMergeQuery(edge.Type), map[string]any{
				"source_id":   edge.SourceID,
				"target_id":   edge.TargetID,
				"description": edge.Description,
			}); err != nil {
				return nil, fmt.Errorf("failed to merge edge %s-[%s]->%s: %w",
					edge.SourceID, edge.Type, edge.TargetID, err)
			}
		}

		return nil, nil
	})
	return err
}

// NodeCount returns the total number of entities in the graph.
func (s *Store) NodeCount(ctx context.Context) (int64, error) {
	result, err := neo4j.ExecuteQuery(
		ctx, s.driver,
		fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", identityLabel), nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	if len(result.Records) == 0 {
		return 0, nil
	}
	count, _, err := neo4j.GetRecordValue[int64](result.Records[0], "count")
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close releases the underlying driver. Safe to call once; callers own
// making sure it runs on every shutdown path.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
