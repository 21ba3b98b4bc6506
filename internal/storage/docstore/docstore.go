// Package docstore 设备键值文档的文件存储。
//
// 文档格式：键为6位十六进制节点地址，值为 {dst, type, description}。
// 扩展名 .yaml/.yml 使用 YAML，其余使用 JSON；两种格式都按文档顺序读写。
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SaveMode 文件写入模式
type SaveMode string

const (
	// SaveAppend 追加写入完整文档（兼容旧固件行为，重复保存会产生多个文档，读取时只取第一个）
	SaveAppend SaveMode = "append"
	// SaveTruncate 覆盖写入
	SaveTruncate SaveMode = "truncate"
)

type docValue struct {
	Dst         string `json:"dst" yaml:"dst"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// FileStore 基于文件的设备文档存储
type FileStore struct {
	path   string
	mode   SaveMode
	yaml   bool
	logger *zap.Logger
}

// New 创建文件存储
func New(path string, mode SaveMode, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = SaveAppend
	}
	ext := strings.ToLower(filepath.Ext(path))
	return &FileStore{
		path:   path,
		mode:   mode,
		yaml:   ext == ".yaml" || ext == ".yml",
		logger: logger,
	}
}

// Path 文件路径
func (s *FileStore) Path() string { return s.path }

// Load 读取文件中的第一个文档
func (s *FileStore) Load(_ context.Context) ([]registry.DeviceRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", registry.ErrStoreMissing, s.path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s.logger.Info("loading 2W devices", zap.String("path", s.path))
	if s.yaml {
		return decodeYAML(f)
	}
	return decodeJSON(f)
}

// Save 写入完整文档
func (s *FileStore) Save(_ context.Context, records []registry.DeviceRecord) error {
	var (
		body []byte
		err  error
	)
	if s.yaml {
		body, err = encodeYAML(records)
	} else {
		body, err = encodeJSON(records)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	flags := os.O_CREATE | os.O_WRONLY
	if s.mode == SaveTruncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func toRecord(key string, v docValue) (registry.DeviceRecord, error) {
	node, err := iohc.ParseAddress(key)
	if err != nil {
		return registry.DeviceRecord{}, fmt.Errorf("device key: %w", err)
	}
	dst, err := iohc.ParseAddress(v.Dst)
	if err != nil {
		return registry.DeviceRecord{}, fmt.Errorf("device %s dst: %w", key, err)
	}
	return registry.DeviceRecord{Node: node, Destination: dst, Type: v.Type, Description: v.Description}, nil
}

func toValue(r registry.DeviceRecord) docValue {
	return docValue{Dst: r.Destination.String(), Type: r.Type, Description: r.Description}
}

// decodeJSON 流式读取对象以保留键顺序，只消费第一个 JSON 值
func decodeJSON(r io.Reader) ([]registry.DeviceRecord, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return []registry.DeviceRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", iohc.ErrParse, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: device document must be an object", iohc.ErrParse)
	}

	out := []registry.DeviceRecord{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", iohc.ErrParse, err)
		}
		key, _ := keyTok.(string)
		var v docValue
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: device %s: %v", iohc.ErrParse, key, err)
		}
		rec, err := toRecord(key, v)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", iohc.ErrParse, err)
	}
	return out, nil
}

func encodeJSON(records []registry.DeviceRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, r := range records {
		key, err := json.Marshal(r.Node.String())
		if err != nil {
			return nil, err
		}
		val, err := json.MarshalIndent(toValue(r), "  ", "  ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(records)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// decodeYAML 通过 yaml.Node 保留映射顺序，只读取第一个文档
func decodeYAML(r io.Reader) ([]registry.DeviceRecord, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return []registry.DeviceRecord{}, nil
		}
		return nil, fmt.Errorf("%w: %v", iohc.ErrParse, err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: device document must be a mapping", iohc.ErrParse)
	}

	out := make([]registry.DeviceRecord, 0, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		var v docValue
		if err := doc.Content[i+1].Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: device %s: %v", iohc.ErrParse, key, err)
		}
		rec, err := toRecord(key, v)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func encodeYAML(records []registry.DeviceRecord) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range records {
		var val yaml.Node
		if err := val.Encode(toValue(r)); err != nil {
			return nil, err
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: r.Node.String()}
		doc.Content = append(doc.Content, key, &val)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
