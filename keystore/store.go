// Package keystore persists scheme parameters and keys as TOML files, the
// secret material with owner-only permissions.
package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	kuibe "github.com/AUKUS561/KUIBE/KUIBE"
	"github.com/AUKUS561/KUIBE/log"
)

// Tomler is implemented by types that move through a TOML representation.
type Tomler interface {
	TOML() interface{}
	FromTOML(i interface{}) error
	TOMLValue() interface{}
}

// ParamsTOML is the on-disk form of the public parameters.
type ParamsTOML struct {
	G      string
	GAlpha string
	G2     string
	G3     string
	U      string
	V      string
	GHat   string
	G2Hat  string
	G3Hat  string
	UHat   string
	VHat   string
}

// Params wraps the scheme parameters for TOML storage.
type Params struct {
	*kuibe.PublicParams
}

func (p *Params) TOML() interface{} {
	return &ParamsTOML{
		G:      PointToString(p.G),
		GAlpha: PointToString(p.GAlpha),
		G2:     PointToString(p.G2),
		G3:     PointToString(p.G3),
		U:      PointToString(p.U),
		V:      PointToString(p.V),
		GHat:   PointToString(p.GHat),
		G2Hat:  PointToString(p.G2Hat),
		G3Hat:  PointToString(p.G3Hat),
		UHat:   PointToString(p.UHat),
		VHat:   PointToString(p.VHat),
	}
}

func (p *Params) FromTOML(i interface{}) error {
	pt, ok := i.(*ParamsTOML)
	if !ok {
		return errors.New("keystore: invalid params TOML")
	}
	pp := new(kuibe.PublicParams)
	var err error
	if pp.G, err = StringToG1(pt.G); err != nil {
		return errors.WithMessage(err, "params g")
	}
	if pp.GAlpha, err = StringToG1(pt.GAlpha); err != nil {
		return errors.WithMessage(err, "params g1")
	}
	if pp.G2, err = StringToG1(pt.G2); err != nil {
		return errors.WithMessage(err, "params g2")
	}
	if pp.G3, err = StringToG1(pt.G3); err != nil {
		return errors.WithMessage(err, "params g3")
	}
	if pp.U, err = StringToG1(pt.U); err != nil {
		return errors.WithMessage(err, "params u")
	}
	if pp.V, err = StringToG1(pt.V); err != nil {
		return errors.WithMessage(err, "params v")
	}
	if pp.GHat, err = StringToG2(pt.GHat); err != nil {
		return errors.WithMessage(err, "params gHat")
	}
	if pp.G2Hat, err = StringToG2(pt.G2Hat); err != nil {
		return errors.WithMessage(err, "params g2Hat")
	}
	if pp.G3Hat, err = StringToG2(pt.G3Hat); err != nil {
		return errors.WithMessage(err, "params g3Hat")
	}
	if pp.UHat, err = StringToG2(pt.UHat); err != nil {
		return errors.WithMessage(err, "params uHat")
	}
	if pp.VHat, err = StringToG2(pt.VHat); err != nil {
		return errors.WithMessage(err, "params vHat")
	}
	p.PublicParams = pp
	return nil
}

func (p *Params) TOMLValue() interface{} {
	return &ParamsTOML{}
}

// MasterTOML is the on-disk form of the master secret.
type MasterTOML struct {
	Alpha string
}

// Master wraps the master secret for TOML storage.
type Master struct {
	*kuibe.MasterSecret
}

func (m *Master) TOML() interface{} {
	return &MasterTOML{Alpha: ScalarToString(m.Alpha)}
}

func (m *Master) FromTOML(i interface{}) error {
	mt, ok := i.(*MasterTOML)
	if !ok {
		return errors.New("keystore: invalid master TOML")
	}
	alpha, err := StringToScalar(mt.Alpha)
	if err != nil {
		return errors.WithMessage(err, "master alpha")
	}
	m.MasterSecret = &kuibe.MasterSecret{Alpha: alpha}
	return nil
}

func (m *Master) TOMLValue() interface{} {
	return &MasterTOML{}
}

// KeyTOML is the on-disk form of a secret key, tagged with the identity
// string it was issued for.
type KeyTOML struct {
	Identity string
	SK1      string
	SK2      string
	SK3      string
	SK4      string
}

// Key wraps a secret key and its identity string for TOML storage.
type Key struct {
	Identity string
	*kuibe.SecretKey
}

func (k *Key) TOML() interface{} {
	return &KeyTOML{
		Identity: k.Identity,
		SK1:      PointToString(k.SK1),
		SK2:      PointToString(k.SK2),
		SK3:      PointToString(k.SK3),
		SK4:      PointToString(k.SK4),
	}
}

func (k *Key) FromTOML(i interface{}) error {
	kt, ok := i.(*KeyTOML)
	if !ok {
		return errors.New("keystore: invalid key TOML")
	}
	sk := new(kuibe.SecretKey)
	var err error
	if sk.SK1, err = StringToG1(kt.SK1); err != nil {
		return errors.WithMessage(err, "key sk1")
	}
	if sk.SK2, err = StringToG1(kt.SK2); err != nil {
		return errors.WithMessage(err, "key sk2")
	}
	if sk.SK3, err = StringToG1(kt.SK3); err != nil {
		return errors.WithMessage(err, "key sk3")
	}
	if sk.SK4, err = StringToG1(kt.SK4); err != nil {
		return errors.WithMessage(err, "key sk4")
	}
	k.Identity = kt.Identity
	k.SecretKey = sk
	return nil
}

func (k *Key) TOMLValue() interface{} {
	return &KeyTOML{}
}

// File names inside a store folder.
const (
	paramsFile = "params.toml"
	masterFile = "master.toml"
	keyPrefix  = "sk-"
)

// FileStore lays the TOML files out under one folder.
type FileStore struct {
	Folder string
	log    log.Logger
}

// NewFileStore creates the folder if needed.
func NewFileStore(folder string, l log.Logger) (*FileStore, error) {
	if l == nil {
		l = log.DefaultLogger()
	}
	if createSecureFolder(folder) == "" {
		return nil, errors.Errorf("keystore: cannot create folder %q", folder)
	}
	return &FileStore{Folder: folder, log: l}, nil
}

func (f *FileStore) paramsPath() string {
	return filepath.Join(f.Folder, paramsFile)
}

func (f *FileStore) masterPath() string {
	return filepath.Join(f.Folder, masterFile)
}

// keyPath derives a stable file name from the identity string.
func (f *FileStore) keyPath(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return filepath.Join(f.Folder, keyPrefix+hex.EncodeToString(sum[:8])+".toml")
}

// SaveParams writes the public parameters, world readable.
func (f *FileStore) SaveParams(pp *kuibe.PublicParams) error {
	f.log.Debugw("", "keystore", "save params", "path", f.paramsPath())
	return Save(f.paramsPath(), &Params{pp}, false)
}

// LoadParams reads the parameters back and checks the group copies still
// agree before handing them out.
func (f *FileStore) LoadParams() (*kuibe.PublicParams, error) {
	p := new(Params)
	if err := Load(f.paramsPath(), p); err != nil {
		return nil, err
	}
	if err := p.Consistent(); err != nil {
		return nil, errors.WithMessage(err, "keystore: stored params")
	}
	return p.PublicParams, nil
}

// SaveMaster writes the master secret with owner-only permissions.
func (f *FileStore) SaveMaster(msk *kuibe.MasterSecret) error {
	f.log.Debugw("", "keystore", "save master", "path", f.masterPath())
	return Save(f.masterPath(), &Master{msk}, true)
}

func (f *FileStore) LoadMaster() (*kuibe.MasterSecret, error) {
	m := new(Master)
	if err := Load(f.masterPath(), m); err != nil {
		return nil, err
	}
	return m.MasterSecret, nil
}

// SaveKey writes the secret key for identity with owner-only permissions.
func (f *FileStore) SaveKey(identity string, sk *kuibe.SecretKey) error {
	f.log.Debugw("", "keystore", "save key", "path", f.keyPath(identity))
	return Save(f.keyPath(identity), &Key{Identity: identity, SecretKey: sk}, true)
}

func (f *FileStore) LoadKey(identity string) (*kuibe.SecretKey, error) {
	k := new(Key)
	if err := Load(f.keyPath(identity), k); err != nil {
		return nil, err
	}
	if k.Identity != identity {
		return nil, errors.Errorf("keystore: key file holds identity %q", k.Identity)
	}
	return k.SecretKey, nil
}

// HasParams reports whether the folder already holds parameters.
func (f *FileStore) HasParams() bool {
	return fileExists(f.paramsPath())
}

// Save encodes t's TOML form at path.
func Save(path string, t Tomler, secure bool) error {
	var fd *os.File
	var err error
	if secure {
		fd, err = createSecureFile(path)
	} else {
		fd, err = os.Create(path)
	}
	if err != nil {
		return errors.Wrapf(err, "keystore: creating %s", path)
	}
	defer fd.Close()
	if err := toml.NewEncoder(fd).Encode(t.TOML()); err != nil {
		return errors.Wrapf(err, "keystore: encoding %s", path)
	}
	return nil
}

// Load decodes the TOML file at path into t.
func Load(path string, t Tomler) error {
	tomlValue := t.TOMLValue()
	if _, err := toml.DecodeFile(path, tomlValue); err != nil {
		return errors.Wrapf(err, "keystore: reading %s", path)
	}
	return t.FromTOML(tomlValue)
}
