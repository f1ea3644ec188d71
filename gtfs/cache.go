package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SerializeCatalog encodes a Catalog to bytes using gob encoding.
// This is useful for disk-based caching to avoid re-parsing GTFS static data.
//
// Example:
//
//	catalog, _ := gtfs.LoadZip("gtfs.zip", "AGENCY")
//	data, err := gtfs.SerializeCatalog(catalog)
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("/path/to/cache/catalog.gob", data, 0644)
func SerializeCatalog(c *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeCatalogToWriter(c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeCatalog decodes a Catalog from bytes using gob encoding and
// rebuilds its lookup tables.
//
// Thread safety: The returned catalog is safe for concurrent read access.
func DeserializeCatalog(data []byte) (*Catalog, error) {
	return DeserializeCatalogFromReader(bytes.NewReader(data))
}

// SerializeCatalogToFile writes a Catalog to a file using gob encoding.
func SerializeCatalogToFile(c *Catalog, filepath string) error {
	data, err := SerializeCatalog(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// DeserializeCatalogFromFile reads a Catalog from a file using gob encoding.
//
// Example:
//
//	catalog, err := gtfs.DeserializeCatalogFromFile("/cache/catalog.gob")
//	if err != nil {
//	    // Cache miss or corrupted, parse the feed again
//	    catalog, _ = gtfs.LoadZip("gtfs.zip", "AGENCY")
//	}
func DeserializeCatalogFromFile(filepath string) (*Catalog, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return DeserializeCatalog(data)
}

// SerializeCatalogToWriter writes a Catalog to an io.Writer using gob encoding.
func SerializeCatalogToWriter(c *Catalog, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode Catalog: %w", err)
	}
	return nil
}

// DeserializeCatalogFromReader reads a Catalog from an io.Reader using gob encoding.
func DeserializeCatalogFromReader(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := gob.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode Catalog: %w", err)
	}
	c.reindex()
	return &c, nil
}
