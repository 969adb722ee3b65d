package actors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Open returns the flat file for db, or false if it has never been written.
func Open(store, db string) (*os.File, bool, error) {
	if err := os.MkdirAll(directory(store), 0755); err != nil {
		return nil, false, err
	}
	file, err := os.Open(directory(store) + db + ".dat")
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return file, true, nil
}

// Write replaces db with b. The old file survives until the new one is complete.
func Write(store, db string, b []byte) error {
	if err := os.MkdirAll(directory(store), 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(directory(store), db+".*.tmp")
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, bytes.NewReader(b)); err == nil {
		err = f.Sync()
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), directory(store)+db+".dat")
}

// WriteJSON persists v as indented JSON.
func WriteJSON(store, db string, v any) error {
	b, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", store, db, err)
	}
	return Write(store, db, b)
}

// ReadJSON decodes db into v. It reports false, with v untouched, if db does not exist.
func ReadJSON(store, db string, v any) (bool, error) {
	f, ok, err := Open(store, db)
	if err != nil || !ok {
		return false, err
	}
	defer f.Close()
	if err = json.NewDecoder(f).Decode(v); err != nil {
		return false, fmt.Errorf("decoding %s/%s: %w", store, db, err)
	}
	return true, nil
}

func directory(store string) string {
	dir := MakeOrGetConfig().GetString("rootDir")
	dir = dir + MakeOrGetConfig().GetString("flatFileDir")
	dir = dir + store + "/"
	return dir
}
