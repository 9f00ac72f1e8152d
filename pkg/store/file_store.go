package store

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// fileRecord 规则文件的 YAML 格式
type fileRecord struct {
	RuleID     string   `yaml:"rule_id"`    // 规则ID
	Match      string   `yaml:"match"`      // 扩展名称
	Descriptor string   `yaml:"descriptor"` // 描述结构的十六进制编码
	Args       []string `yaml:"args"`       // 原始参数
}

// FileStore 每条规则保存为目录下的一个 YAML 文件
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore 创建文件存储，目录不存在时自动创建
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create rule directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(ruleID string) string {
	return filepath.Join(s.dir, ruleID+".yaml")
}

func (s *FileStore) Create(ctx context.Context, rec *Record) error {
	return s.write(rec, false)
}

func (s *FileStore) Put(ctx context.Context, rec *Record) error {
	return s.write(rec, true)
}

func (s *FileStore) write(rec *Record, overwrite bool) error {
	if err := ValidateRuleID(rec.RuleID); err != nil {
		return errors.Wrapf(err, "%q", rec.RuleID)
	}

	data, err := yaml.Marshal(&fileRecord{
		RuleID:     rec.RuleID,
		Match:      rec.Match,
		Descriptor: hex.EncodeToString(rec.Data),
		Args:       rec.Args,
	})
	if err != nil {
		return errors.Wrap(err, "marshal rule")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 先写临时文件再改名，避免读到写了一半的规则
	path := s.path(rec.RuleID)
	tmp, err := os.CreateTemp(s.dir, rec.RuleID+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "write rule %s", rec.RuleID)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0644)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "write rule %s", rec.RuleID)
	}

	if overwrite {
		err = os.Rename(tmp.Name(), path)
	} else {
		// link 在目标已存在时失败，其他进程同时创建也只有一个成功
		err = os.Link(tmp.Name(), path)
		if os.IsExist(err) {
			return errors.Wrapf(ErrExists, "rule %s", rec.RuleID)
		}
	}
	return errors.Wrapf(err, "write rule %s", rec.RuleID)
}

func (s *FileStore) Get(ctx context.Context, ruleID string) (*Record, error) {
	if err := ValidateRuleID(ruleID); err != nil {
		return nil, errors.Wrapf(err, "%q", ruleID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := loadRuleFile(s.path(ruleID))
	if os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrapf(ErrNotFound, "rule %s", ruleID)
	}
	return rec, err
}

// List 加载目录下所有 .yaml/.yml 规则，按规则ID排序
func (s *FileStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read rule directory %s", s.dir)
	}

	var records []*Record
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := filepath.Ext(file.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		rec, err := loadRuleFile(filepath.Join(s.dir, file.Name()))
		if err != nil {
			return nil, errors.WithMessagef(err, "load rule file %s", file.Name())
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RuleID < records[j].RuleID
	})
	logrus.WithFields(logrus.Fields{
		"dir":        s.dir,
		"rule_count": len(records),
	}).Debug("loaded rules from directory")
	return records, nil
}

func (s *FileStore) Delete(ctx context.Context, ruleID string) error {
	if err := ValidateRuleID(ruleID); err != nil {
		return errors.Wrapf(err, "%q", ruleID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(ruleID))
	if os.IsNotExist(err) {
		return errors.Wrapf(ErrNotFound, "rule %s", ruleID)
	}
	return errors.Wrapf(err, "delete rule %s", ruleID)
}

func (s *FileStore) Close() error {
	return nil
}

func loadRuleFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var fr fileRecord
	if err := yaml.Unmarshal(data, &fr); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	descriptor, err := hex.DecodeString(fr.Descriptor)
	if err != nil {
		return nil, errors.Wrapf(err, "decode descriptor in %s", path)
	}

	return &Record{
		RuleID: fr.RuleID,
		Match:  fr.Match,
		Data:   descriptor,
		Args:   fr.Args,
	}, nil
}
