package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"

	"audio-transcoder/internal/storage"
	"audio-transcoder/internal/transcoder"
)

type fakeObject struct {
	data  []byte
	attrs storage.ObjectAttrs
}

// fakeStorage is an in-memory storage.Backend that records calls.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]*fakeObject
	calls   []string

	statErr     error
	uploadErr   error
	metadataErr map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]*fakeObject{}, metadataErr: map[string]error{}}
}

func (f *fakeStorage) put(bucket, name, contentType string, data []byte, md map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if md == nil {
		md = map[string]string{}
	}
	f.objects[bucket+"/"+name] = &fakeObject{
		data: data,
		attrs: storage.ObjectAttrs{
			Bucket: bucket, Name: name, ContentType: contentType,
			Metadata: md, Size: int64(len(data)),
		},
	}
}

func (f *fakeStorage) get(bucket, name string) (*fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[bucket+"/"+name]
	return o, ok
}

func (f *fakeStorage) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStorage) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeStorage) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeStorage) Stat(_ context.Context, bucket, name string) (*storage.ObjectAttrs, error) {
	f.record("stat " + bucket + "/" + name)
	if f.statErr != nil {
		return nil, f.statErr
	}
	o, ok := f.get(bucket, name)
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, name, storage.ErrObjectNotFound)
	}
	attrs := o.attrs
	attrs.Metadata = maps.Clone(o.attrs.Metadata)
	return &attrs, nil
}

func (f *fakeStorage) Download(_ context.Context, obj *storage.ObjectAttrs, localPath string) (int64, error) {
	f.record("download " + obj.Bucket + "/" + obj.Name)
	o, ok := f.get(obj.Bucket, obj.Name)
	if !ok {
		return 0, storage.ErrObjectNotFound
	}
	if err := os.WriteFile(localPath, o.data, 0o600); err != nil {
		return 0, err
	}
	return int64(len(o.data)), nil
}

func (f *fakeStorage) Upload(_ context.Context, bucket, name, localPath, contentType string) (*storage.ObjectAttrs, error) {
	f.record("upload " + bucket + "/" + name)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, err
	}
	f.put(bucket, name, contentType, data, nil)
	o, _ := f.get(bucket, name)
	attrs := o.attrs
	return &attrs, nil
}

func (f *fakeStorage) SetMetadata(_ context.Context, obj *storage.ObjectAttrs, md map[string]string) (*storage.ObjectAttrs, error) {
	f.record("metadata " + obj.Bucket + "/" + obj.Name)
	if err := f.metadataErr[obj.Name]; err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[obj.Bucket+"/"+obj.Name]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	maps.Copy(o.attrs.Metadata, md)
	attrs := o.attrs
	return &attrs, nil
}

func (f *fakeStorage) Name() string { return "fake" }
func (f *fakeStorage) Close() error { return nil }

// fakeEncoder writes a fixed payload to dst.
type fakeEncoder struct {
	mu     sync.Mutex
	calls  int
	srcs   []string
	err    error
	output []byte
}

func (e *fakeEncoder) Transcode(_ context.Context, src, dst string) (*transcoder.Result, error) {
	e.mu.Lock()
	e.calls++
	e.srcs = append(e.srcs, src)
	e.mu.Unlock()

	args := transcoder.AACArgs(src, dst).Build()
	if e.err != nil {
		return &transcoder.Result{Args: args, ExitCode: 1}, e.err
	}
	out := e.output
	if out == nil {
		out = []byte("aac-data")
	}
	if err := os.WriteFile(dst, out, 0o600); err != nil {
		return nil, err
	}
	return &transcoder.Result{Args: args}, nil
}

func (e *fakeEncoder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// fakeSniffer returns a fixed type.
type fakeSniffer struct {
	contentType string
	err         error
	calls       int
}

func (s *fakeSniffer) DetectFile(string) (string, error) {
	s.calls++
	return s.contentType, s.err
}

var errBackend = errors.New("backend exploded")
