package mongo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

const (
	mediaBucket     = "media"
	blobIOTimeout   = 60 * time.Second
	metaContentType = "content_type"
)

// BlobStore keeps message attachments in a GridFS bucket and addresses them
// as <urlPrefix>/<object id>.
type BlobStore struct {
	db        *mongo.Database
	urlPrefix string
}

func NewBlobStore(db *mongo.Database, urlPrefix string) *BlobStore {
	return &BlobStore{db: db, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// bucket returns a bucket whose deadlines follow ctx. Buckets carry their
// deadlines as state, so each call gets its own.
func (s *BlobStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(mediaBucket))
	if err != nil {
		return nil, storeErr("gridfs bucket", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(blobIOTimeout)
	}
	if err := applyDeadline(b, deadline); err != nil {
		return nil, err
	}
	return b, nil
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

func applyDeadline(d deadliner, t time.Time) error {
	if err := d.SetReadDeadline(t); err != nil {
		return storeErr("gridfs read deadline", err)
	}
	if err := d.SetWriteDeadline(t); err != nil {
		return storeErr("gridfs write deadline", err)
	}
	return nil
}

// Save uploads data and returns the URL that serves it.
func (s *BlobStore) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = "attachment"
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{metaContentType: contentType})
	id, err := b.UploadFromStream(name, bytes.NewReader(data), opts)
	if err != nil {
		return "", storeErr("upload media", err)
	}
	return s.URL(id.Hex()), nil
}

// Open streams a stored attachment by id. The caller closes the reader.
func (s *BlobStore) Open(ctx context.Context, id string) (io.ReadCloser, *ports.BlobInfo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, domain.ErrMediaNotFound
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, nil, err
	}

	stream, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.ErrMediaNotFound
		}
		return nil, nil, storeErr("open media", err)
	}

	file := stream.GetFile()
	info := &ports.BlobInfo{ID: id, Name: file.Name, Size: file.Length, ContentType: "application/octet-stream"}
	if len(file.Metadata) > 0 {
		if ct, ok := file.Metadata.Lookup(metaContentType).StringValueOK(); ok && ct != "" {
			info.ContentType = ct
		}
	}
	return stream, info, nil
}

// URL builds the public address of a stored object.
func (s *BlobStore) URL(id string) string {
	return s.urlPrefix + "/" + id
}
