package main

import (
	"fmt"
	"os"

	json "github.com/nikkolasg/hexjson"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	kuibe "github.com/AUKUS561/KUIBE/KUIBE"
	"github.com/AUKUS561/KUIBE/archive"
	"github.com/AUKUS561/KUIBE/bench"
	"github.com/AUKUS561/KUIBE/keystore"
	"github.com/AUKUS561/KUIBE/log"
	"github.com/AUKUS561/KUIBE/primitives"
)

var (
	folderFlag = &cli.StringFlag{
		Name:  "folder",
		Usage: "directory holding the parameters and keys",
		Value: ".kuibe",
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "print debug logs",
	}
	idFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "identity string the key or ciphertext is bound to",
		Required: true,
	}
	contextFlag = &cli.StringFlag{
		Name:  "context",
		Usage: "context string mixed into the hash and the extractor",
	}
	inFlag = &cli.StringFlag{
		Name:     "in",
		Usage:    "input file",
		Required: true,
	}
	outFlag = &cli.StringFlag{
		Name:     "out",
		Usage:    "output file",
		Required: true,
	}
	archiveFlag = &cli.StringFlag{
		Name:  "archive",
		Usage: "bolt database to append the ciphertext to",
	}
	iterFlag = &cli.IntFlag{
		Name:  "n",
		Usage: "iterations per phase",
		Value: 10,
	}
)

func main() {
	app := &cli.App{
		Name:  "kuibe",
		Usage: "identity-keyed encryption with forward-secure key update",
		Flags: []cli.Flag{folderFlag, verboseFlag},
		Commands: []*cli.Command{
			setupCommand,
			keygenCommand,
			updateCommand,
			encryptCommand,
			decryptCommand,
			benchCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.DefaultLogger().Fatalw("", "kuibe", "run", "err", err)
	}
}

func logger(c *cli.Context) log.Logger {
	if c.Bool(verboseFlag.Name) {
		return log.NewLogger(log.LogDebug)
	}
	return log.DefaultLogger()
}

func openStore(c *cli.Context) (*keystore.FileStore, error) {
	return keystore.NewFileStore(c.String(folderFlag.Name), logger(c))
}

var setupCommand = &cli.Command{
	Name:  "setup",
	Usage: "generate public parameters and the master secret",
	Action: func(c *cli.Context) error {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		if store.HasParams() {
			return errors.Errorf("parameters already exist under %q", store.Folder)
		}
		pp, msk, err := kuibe.NewKUIBE().Setup()
		if err != nil {
			return err
		}
		if err := store.SaveParams(pp); err != nil {
			return err
		}
		if err := store.SaveMaster(msk); err != nil {
			return err
		}
		fmt.Printf("parameters written to %s\n", store.Folder)
		return nil
	},
}

var keygenCommand = &cli.Command{
	Name:  "keygen",
	Usage: "issue the period-0 key for an identity",
	Flags: []cli.Flag{idFlag},
	Action: func(c *cli.Context) error {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		pp, err := store.LoadParams()
		if err != nil {
			return err
		}
		msk, err := store.LoadMaster()
		if err != nil {
			return err
		}
		idStr := c.String(idFlag.Name)
		sk, err := kuibe.NewKUIBE().KeyGen(pp, msk, primitives.IdentityFromString(idStr))
		if err != nil {
			return err
		}
		if err := store.SaveKey(idStr, sk); err != nil {
			return err
		}
		fmt.Printf("key for %q written to %s\n", idStr, store.Folder)
		return nil
	},
}

var updateCommand = &cli.Command{
	Name:  "update",
	Usage: "advance an identity's key to the next period",
	Flags: []cli.Flag{idFlag},
	Action: func(c *cli.Context) error {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		pp, err := store.LoadParams()
		if err != nil {
			return err
		}
		idStr := c.String(idFlag.Name)
		sk, err := store.LoadKey(idStr)
		if err != nil {
			return err
		}
		skNew, err := kuibe.NewKUIBE().KeyUpdate(pp, sk, primitives.IdentityFromString(idStr))
		if err != nil {
			return err
		}
		if err := store.SaveKey(idStr, skNew); err != nil {
			return err
		}
		fmt.Printf("key for %q updated\n", idStr)
		return nil
	},
}

var encryptCommand = &cli.Command{
	Name:  "encrypt",
	Usage: "encrypt a file for an identity",
	Flags: []cli.Flag{idFlag, inFlag, outFlag, contextFlag, archiveFlag},
	Action: func(c *cli.Context) error {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		pp, err := store.LoadParams()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(c.String(inFlag.Name))
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		idStr := c.String(idFlag.Name)
		eta := []byte(c.String(contextFlag.Name))
		hc, err := kuibe.NewKUIBE().EncryptBytes(pp, primitives.IdentityFromString(idStr), data, eta)
		if err != nil {
			return err
		}
		env := &archive.Envelope{
			Identity: idStr,
			Eta:      eta,
			Header:   hc.Header.Marshal(),
			Payload:  hc.Payload,
		}
		buff, err := json.Marshal(env)
		if err != nil {
			return errors.Wrap(err, "encoding envelope")
		}
		if err := os.WriteFile(c.String(outFlag.Name), buff, 0644); err != nil {
			return errors.Wrap(err, "writing output")
		}
		if path := c.String(archiveFlag.Name); path != "" {
			if err := archiveEnvelope(c, path, env); err != nil {
				return err
			}
		}
		return nil
	},
}

// archiveEnvelope appends env to the bolt archive at path, continuing the
// sequence from the last stored entry.
func archiveEnvelope(c *cli.Context, path string, env *archive.Envelope) error {
	st, err := archive.NewStore(path, logger(c))
	if err != nil {
		return err
	}
	defer st.Close()
	seq := uint64(1)
	last, err := st.Last()
	switch {
	case err == nil:
		seq = last.Seq + 1
	case errors.Is(err, archive.ErrNoEnvelope):
	default:
		return err
	}
	env.Seq = seq
	return st.Put(env)
}

var decryptCommand = &cli.Command{
	Name:  "decrypt",
	Usage: "decrypt an envelope with the stored key",
	Flags: []cli.Flag{idFlag, inFlag, outFlag, contextFlag},
	Action: func(c *cli.Context) error {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		pp, err := store.LoadParams()
		if err != nil {
			return err
		}
		idStr := c.String(idFlag.Name)
		sk, err := store.LoadKey(idStr)
		if err != nil {
			return err
		}
		buff, err := os.ReadFile(c.String(inFlag.Name))
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		env := new(archive.Envelope)
		if err := json.Unmarshal(buff, env); err != nil {
			return errors.Wrap(err, "decoding envelope")
		}
		header := new(kuibe.Ciphertext)
		if err := header.Unmarshal(env.Header); err != nil {
			return err
		}
		// the envelope carries its context; --context overrides it
		eta := env.Eta
		if s := c.String(contextFlag.Name); s != "" {
			eta = []byte(s)
		}
		hc := &kuibe.HybridCiphertext{Header: header, Payload: env.Payload}
		data, err := kuibe.NewKUIBE().DecryptBytes(pp, sk, hc, eta)
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.String(outFlag.Name), data, 0644); err != nil {
			return errors.Wrap(err, "writing output")
		}
		return nil
	},
}

var benchCommand = &cli.Command{
	Name:  "bench",
	Usage: "time the protocol phases",
	Flags: []cli.Flag{iterFlag},
	Action: func(c *cli.Context) error {
		results, err := bench.Run(c.Int(iterFlag.Name))
		if err != nil {
			return err
		}
		bench.Fprint(os.Stdout, results)
		return nil
	},
}
