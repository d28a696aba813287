package repository

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/timmy/semindex/internal/domain"
)

const (
	// DenseVectorName and SparseVectorName name the vectors of hybrid indexes.
	DenseVectorName  = "dense"
	SparseVectorName = "sparse"

	// RecordIDField keeps the dataset's own identifier in the payload. The
	// prefix keeps it clear of dataset columns such as a CSV "record_id".
	RecordIDField = "_semindex_record_id"
)

// ErrReservedField is returned when record metadata uses a payload key the
// repository writes itself.
var ErrReservedField = errors.New("reserved payload field")

// ErrIndexDimension is returned when an existing index has a different
// vector size than the embedding profile produces.
var ErrIndexDimension = errors.New("index dimension mismatch")

// pointNamespace scopes deterministic point IDs.
var pointNamespace = uuid.MustParse("5b0c6a52-4f0e-4d63-9a57-2f9a3c1e8d40")

// IndexMode selects how PrepareIndex treats an existing index.
type IndexMode string

const (
	// ModeRebuild deletes any existing index and creates it fresh.
	ModeRebuild IndexMode = "rebuild"
	// ModeIncremental keeps an existing index after checking its dimension.
	ModeIncremental IndexMode = "incremental"
)

// ParseIndexMode validates a mode name. Empty means rebuild.
func ParseIndexMode(s string) (IndexMode, error) {
	switch IndexMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRebuild:
		return ModeRebuild, nil
	case ModeIncremental:
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("unknown index mode %q (want rebuild or incremental)", s)
	}
}

// Placement maps serverless placement hints onto collection settings.
// Zero values leave the server defaults in place.
type Placement struct {
	ShardNumber       uint32
	ReplicationFactor uint32
	OnDisk            bool
}

// IndexSpec describes an index to create.
type IndexSpec struct {
	Dimension uint64
	Metric    string // cosine, dot, euclid, manhattan
	Placement Placement
	Hybrid    bool // named dense vector plus a sparse vector
}

// QdrantConnectionConfig holds configuration for Qdrant connection
type QdrantConnectionConfig struct {
	Host   string
	Port   int
	APIKey string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS bool   // Explicitly enable TLS without API Key
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantRepository manages indexes (Qdrant collections) and their points.
type QdrantRepository struct {
	conn          *grpc.ClientConn
	pointsClient  pb.PointsClient
	collectClient pb.CollectionsClient
}

// NewQdrantRepository connects to Qdrant. Local servers use plaintext gRPC;
// an API key or UseTLS switches to TLS.
func NewQdrantRepository(cfg *QdrantConnectionConfig) (*QdrantRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var opts []grpc.DialOption
	if cfg.UseTLS || cfg.APIKey != "" {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	repo := newQdrantRepository(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn))
	repo.conn = conn
	return repo, nil
}

func newQdrantRepository(points pb.PointsClient, collections pb.CollectionsClient) *QdrantRepository {
	return &QdrantRepository{pointsClient: points, collectClient: collections}
}

// Close closes the gRPC connection
func (r *QdrantRepository) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// Exists reports whether the named index exists.
func (r *QdrantRepository) Exists(ctx context.Context, name string) (bool, error) {
	resp, err := r.collectClient.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	return resp.GetResult().GetExists(), nil
}

// Delete drops the named index.
func (r *QdrantRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.collectClient.Delete(ctx, &pb.DeleteCollection{CollectionName: name}); err != nil {
		return fmt.Errorf("failed to delete index %s: %w", name, err)
	}
	return nil
}

// Create creates the named index from spec.
func (r *QdrantRepository) Create(ctx context.Context, name string, spec IndexSpec) error {
	req, err := buildCreateCollection(name, spec)
	if err != nil {
		return err
	}
	if _, err := r.collectClient.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	return nil
}

// PrepareIndex makes the index ready for upserts. Rebuild deletes an
// existing index unconditionally and recreates it. Incremental creates the
// index only when missing and otherwise checks its dimension.
func (r *QdrantRepository) PrepareIndex(ctx context.Context, name string, spec IndexSpec, mode IndexMode) error {
	exists, err := r.Exists(ctx, name)
	if err != nil {
		return err
	}

	if exists && mode == ModeIncremental {
		info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
		if err != nil {
			return fmt.Errorf("failed to inspect index %s: %w", name, err)
		}
		if size, ok := collectionVectorSize(info.GetResult()); ok && size != spec.Dimension {
			return fmt.Errorf("%w: index %s has vector size %d, expected %d", ErrIndexDimension, name, size, spec.Dimension)
		}
		return nil
	}

	if exists {
		if err := r.Delete(ctx, name); err != nil {
			return err
		}
	}
	return r.Create(ctx, name, spec)
}

func buildCreateCollection(name string, spec IndexSpec) (*pb.CreateCollection, error) {
	distance, err := parseDistance(spec.Metric)
	if err != nil {
		return nil, err
	}

	params := &pb.VectorParams{
		Size:     spec.Dimension,
		Distance: distance,
	}
	if spec.Placement.OnDisk {
		params.OnDisk = optionalBool(true)
	}

	req := &pb.CreateCollection{CollectionName: name}
	if spec.Hybrid {
		req.VectorsConfig = &pb.VectorsConfig{
			Config: &pb.VectorsConfig_ParamsMap{
				ParamsMap: &pb.VectorParamsMap{
					Map: map[string]*pb.VectorParams{DenseVectorName: params},
				},
			},
		}
		req.SparseVectorsConfig = &pb.SparseVectorConfig{
			Map: map[string]*pb.SparseVectorParams{SparseVectorName: {}},
		}
	} else {
		req.VectorsConfig = &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{Params: params},
		}
	}

	if spec.Placement.ShardNumber > 0 {
		req.ShardNumber = optionalUint32(spec.Placement.ShardNumber)
	}
	if spec.Placement.ReplicationFactor > 0 {
		req.ReplicationFactor = optionalUint32(spec.Placement.ReplicationFactor)
	}
	if spec.Placement.OnDisk {
		req.OnDiskPayload = optionalBool(true)
	}
	return req, nil
}

func parseDistance(metric string) (pb.Distance, error) {
	switch strings.ToLower(metric) {
	case "", "cosine":
		return pb.Distance_Cosine, nil
	case "dot", "dotproduct":
		return pb.Distance_Dot, nil
	case "euclid", "euclidean":
		return pb.Distance_Euclid, nil
	case "manhattan":
		return pb.Distance_Manhattan, nil
	default:
		return pb.Distance_UnknownDistance, fmt.Errorf("unsupported metric %q", metric)
	}
}

func optionalUint32(v uint32) *uint32 {
	return &v
}

func optionalBool(v bool) *bool {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	vectors := info.GetConfig().GetParams().GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}

	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}

	if paramsMap := vectors.GetParamsMap(); paramsMap != nil {
		if dense, ok := paramsMap.GetMap()[DenseVectorName]; ok && dense.GetSize() > 0 {
			return dense.GetSize(), true
		}
		for _, vectorParams := range paramsMap.GetMap() {
			if size := vectorParams.GetSize(); size > 0 {
				return size, true
			}
		}
	}
	return 0, false
}

// Index returns a handle for point operations on the named index.
// hybrid selects the named dense/sparse vector layout.
func (r *QdrantRepository) Index(name string, hybrid bool) *Index {
	return &Index{repo: r, name: name, hybrid: hybrid}
}

// Index is a handle on one index's points.
type Index struct {
	repo   *QdrantRepository
	name   string
	hybrid bool
}

// Name returns the index name.
func (ix *Index) Name() string {
	return ix.name
}

// PointID derives the Qdrant point ID for a record. The same index and
// record ID always give the same UUID, so re-ingesting overwrites in place.
func PointID(index, recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(index+"\x00"+recordID)).String()
}

// UpsertBatch writes entries in a single request and waits for the write to
// be applied.
func (ix *Index) UpsertBatch(ctx context.Context, entries []domain.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(entries))
	for i, entry := range entries {
		if _, ok := entry.Metadata[RecordIDField]; ok {
			return fmt.Errorf("%w: record %s has a %q field", ErrReservedField, entry.ID, RecordIDField)
		}
		payload := toPayload(entry.Metadata)
		payload[RecordIDField] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: entry.ID}}

		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(ix.name, entry.ID)},
			},
			Vectors: ix.vectors(entry.Vector),
			Payload: payload,
		}
	}

	_, err := ix.repo.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: ix.name,
		Wait:           optionalBool(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), ix.name, err)
	}
	return nil
}

func (ix *Index) vectors(emb domain.Embedding) *pb.Vectors {
	if !ix.hybrid {
		return &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: emb.Dense}},
		}
	}

	named := map[string]*pb.Vector{
		DenseVectorName: {Data: emb.Dense},
	}
	if emb.HasSparse() {
		named[SparseVectorName] = &pb.Vector{
			Data:    emb.Sparse.Values,
			Indices: &pb.SparseIndices{Data: emb.Sparse.Indices},
		}
	}
	return &pb.Vectors{
		VectorsOptions: &pb.Vectors_Vectors{Vectors: &pb.NamedVectors{Vectors: named}},
	}
}

// Search returns the topK nearest points to vector, with their payloads.
func (ix *Index) Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	req := &pb.SearchPoints{
		CollectionName: ix.name,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if ix.hybrid {
		name := DenseVectorName
		req.VectorName = &name
	}

	resp, err := ix.repo.pointsClient.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", ix.name, err)
	}

	matches := make([]domain.Match, len(resp.GetResult()))
	for i, scored := range resp.GetResult() {
		md := fromPayload(scored.GetPayload())
		recordID, _ := md[RecordIDField].(string)
		delete(md, RecordIDField)

		matches[i] = domain.Match{
			ID:       pointIDString(scored.GetId()),
			RecordID: recordID,
			Score:    scored.GetScore(),
			Metadata: md,
		}
	}
	return matches, nil
}

func pointIDString(id *pb.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}
