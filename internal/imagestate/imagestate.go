// Package imagestate хранит состояние фильтров фонового изображения глифа
// в YAML-файле рядом с изображением.
package imagestate

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artemshloyda/imagepresets/internal/preset"
)

// Suffix - расширение файлов состояния.
const Suffix = ".imgstate.yaml"

// DefaultHistoryLimit - сколько записей отмены хранится по умолчанию.
const DefaultHistoryLimit = 20

var (
	// ErrNoUndo - история отмены пуста.
	ErrNoUndo = errors.New("нечего отменять")

	// ErrNoTransaction - изменение вне PrepareUndo/PerformUndo.
	ErrNoTransaction = errors.New("изменение изображения вне записи отмены")
)

// snapshot - значения фильтров в шкале фильтра.
type snapshot struct {
	Color      []float64 `yaml:"color,omitempty"`
	Brightness float64   `yaml:"brightness"`
	Contrast   float64   `yaml:"contrast"`
	Saturation float64   `yaml:"saturation"`
	Sharpness  float64   `yaml:"sharpness"`
}

// entry - одна запись истории отмены.
type entry struct {
	Title string    `yaml:"title"`
	At    time.Time `yaml:"at"`
	State snapshot  `yaml:"state"`
}

// document - содержимое файла состояния.
type document struct {
	// Image - путь к фоновому изображению.
	Image string `yaml:"image,omitempty"`

	snapshot `yaml:",inline"`

	// History - записи отмены, последняя в конце.
	History []entry `yaml:"history,omitempty"`
}

// PathFor возвращает путь к файлу состояния для изображения.
// Путь, уже оканчивающийся на Suffix, возвращается как есть.
func PathFor(image string) string {
	if strings.HasSuffix(image, Suffix) {
		return image
	}
	return image + Suffix
}

// ImageFor возвращает путь к изображению по пути файла состояния.
func ImageFor(statePath string) string {
	return strings.TrimSuffix(statePath, Suffix)
}

// File - состояние фонового изображения, реализует preset.Image.
type File struct {
	path         string
	doc          document
	historyLimit int

	// pending - состояние до PrepareUndo, nil вне записи отмены.
	pending      *snapshot
	pendingTitle string
}

var _ preset.Image = (*File)(nil)

// Option настраивает File.
type Option func(*File)

// WithHistoryLimit задаёт количество хранимых записей отмены.
func WithHistoryLimit(n int) Option {
	return func(f *File) {
		if n > 0 {
			f.historyLimit = n
		}
	}
}

// defaultSnapshot - состояние изображения без фильтров.
func defaultSnapshot() snapshot {
	return snapshot{Brightness: 0, Contrast: 1, Saturation: 1, Sharpness: 0}
}

// Open читает файл состояния. Если файла нет, возвращается состояние без фильтров;
// файл будет создан при первой записи.
func Open(path string, opts ...Option) (*File, error) {
	f := &File{
		path:         path,
		doc:          document{snapshot: defaultSnapshot()},
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("не удалось прочитать %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &f.doc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}
	if c := f.doc.Color; c != nil && len(c) != 4 {
		return nil, fmt.Errorf("%s: цвет должен содержать 4 канала, получено: %d", path, len(c))
	}
	return f, nil
}

// Path возвращает путь к файлу состояния.
func (f *File) Path() string { return f.path }

// Image возвращает путь к фоновому изображению.
func (f *File) Image() string { return f.doc.Image }

// SetImage задаёт путь к фоновому изображению. Записывается при следующем PerformUndo.
func (f *File) SetImage(path string) { f.doc.Image = path }

// State возвращает текущие значения фильтров.
func (f *File) State() preset.ImageState {
	return f.doc.snapshot.imageState()
}

// History возвращает заголовки записей отмены, последняя в конце.
func (f *File) History() []string {
	titles := make([]string, len(f.doc.History))
	for i, e := range f.doc.History {
		titles[i] = e.Title
	}
	return titles
}

// PrepareUndo начинает запись отмены.
func (f *File) PrepareUndo(title string) {
	s := f.doc.snapshot.clone()
	f.pending = &s
	f.pendingTitle = title
}

// PerformUndo завершает запись отмены и атомарно сохраняет файл.
func (f *File) PerformUndo() error {
	if f.pending == nil {
		return ErrNoTransaction
	}

	f.doc.History = append(f.doc.History, entry{
		Title: f.pendingTitle,
		At:    time.Now().UTC().Truncate(time.Second),
		State: *f.pending,
	})
	if extra := len(f.doc.History) - f.historyLimit; extra > 0 {
		f.doc.History = f.doc.History[extra:]
	}
	f.pending = nil
	f.pendingTitle = ""

	return f.save()
}

// Undo восстанавливает состояние до последней записи и возвращает её заголовок.
func (f *File) Undo() (string, error) {
	n := len(f.doc.History)
	if n == 0 {
		return "", ErrNoUndo
	}
	last := f.doc.History[n-1]
	f.doc.History = f.doc.History[:n-1]
	f.doc.snapshot = last.State
	if err := f.save(); err != nil {
		return "", err
	}
	return last.Title, nil
}

// SetColor задаёт цвет наложения в шкале фильтра. nil убирает наложение.
func (f *File) SetColor(c *preset.Color) error {
	if err := f.checkWrite(); err != nil {
		return err
	}
	if c == nil {
		f.doc.Color = nil
		return nil
	}
	for _, v := range c.Channels() {
		if err := checkFinite("color", v); err != nil {
			return err
		}
	}
	f.doc.Color = c.Slice()
	return nil
}

// SetBrightness задаёт яркость в шкале фильтра.
func (f *File) SetBrightness(v float64) error {
	return f.setScalar("brightness", &f.doc.Brightness, v)
}

// SetContrast задаёт контраст в шкале фильтра.
func (f *File) SetContrast(v float64) error {
	return f.setScalar("contrast", &f.doc.Contrast, v)
}

// SetSaturation задаёт насыщенность в шкале фильтра.
func (f *File) SetSaturation(v float64) error {
	return f.setScalar("saturation", &f.doc.Saturation, v)
}

// SetSharpness задаёт резкость в шкале фильтра.
func (f *File) SetSharpness(v float64) error {
	return f.setScalar("sharpness", &f.doc.Sharpness, v)
}

func (f *File) setScalar(name string, dst *float64, v float64) error {
	if err := f.checkWrite(); err != nil {
		return err
	}
	if err := checkFinite(name, v); err != nil {
		return err
	}
	*dst = v
	return nil
}

func (f *File) checkWrite() error {
	if f.pending == nil {
		return ErrNoTransaction
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("некорректное значение %s: %v", name, v)
	}
	return nil
}

// save пишет во временный файл и переименовывает его поверх path.
func (f *File) save() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	data, err := yaml.Marshal(&f.doc)
	if err != nil {
		return fmt.Errorf("не удалось закодировать состояние: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("не удалось записать %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("не удалось переименовать %s: %w", tmp, err)
	}
	return nil
}

func (s snapshot) clone() snapshot {
	if s.Color != nil {
		s.Color = append([]float64(nil), s.Color...)
	}
	return s
}

func (s snapshot) imageState() preset.ImageState {
	st := preset.ImageState{
		Brightness: s.Brightness,
		Contrast:   s.Contrast,
		Saturation: s.Saturation,
		Sharpness:  s.Sharpness,
	}
	if len(s.Color) == 4 {
		c := preset.RGBA(s.Color[0], s.Color[1], s.Color[2], s.Color[3])
		st.Color = &c
	}
	return st
}
