package credentials_test

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fitness-proxy/garmin-proxy/pkg/credentials"
	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

var _ = Describe("DiskStore", func() {
	var (
		tmpDir string
		store  *credentials.DiskStore
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "credentials-test-*")
		Expect(err).NotTo(HaveOccurred())
		store = credentials.NewDiskStore(osfs.New("/", osfs.WithBoundOS()))
	})

	AfterEach(func() {
		if tmpDir != "" {
			os.RemoveAll(tmpDir)
		}
	})

	Describe("Save and Load", func() {
		It("should save and load a document", func() {
			path := filepath.Join(tmpDir, "tokens.json")

			err := store.Save(path, []byte(`{"a":1}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Exists(path)).To(BeTrue())

			data, err := store.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte(`{"a":1}`)))
		})

		It("should overwrite an existing document", func() {
			path := filepath.Join(tmpDir, "tokens.json")

			Expect(store.Save(path, []byte(`{"first":"a much longer document than the second"}`))).To(Succeed())
			Expect(store.Save(path, []byte(`{"b":2}`))).To(Succeed())

			data, err := store.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte(`{"b":2}`)))
		})

		It("should not leave temp files behind", func() {
			path := filepath.Join(tmpDir, "tokens.json")
			Expect(store.Save(path, []byte(`{}`))).To(Succeed())

			entries, err := os.ReadDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			for _, e := range entries {
				Expect(strings.HasPrefix(e.Name(), ".tmp-")).To(BeFalse(), "temp file left: %s", e.Name())
			}
		})
	})

	Describe("Exists", func() {
		It("should return false when no document exists", func() {
			Expect(store.Exists(filepath.Join(tmpDir, "missing.json"))).To(BeFalse())
		})

		It("should return false for a directory", func() {
			Expect(store.Exists(tmpDir)).To(BeFalse())
		})
	})

	Describe("Apply", func() {
		It("should create files with restrictive permissions", func() {
			path := filepath.Join(tmpDir, "tokens.json")
			plan := &credentials.Plan{
				Shape:  credentials.ShapeSingleFile,
				Writes: []credentials.FileWrite{{Path: path, Data: []byte(`{}`)}},
			}

			_, err := store.Apply(plan)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
		})

		It("should create nested directories if they don't exist", func() {
			path := filepath.Join(tmpDir, "nested", "data", "tokens.json")
			plan := &credentials.Plan{
				Writes: []credentials.FileWrite{{Path: path, Data: []byte(`{}`)}},
			}

			_, err := store.Apply(plan)
			Expect(err).NotTo(HaveOccurred())

			_, err = os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should move a stale file aside before creating the directory", func() {
			dir := filepath.Join(tmpDir, "garmin_tokens")
			Expect(os.WriteFile(dir, []byte("stale"), 0o600)).To(Succeed())
			Expect(os.WriteFile(dir+".stale.bak", []byte("older"), 0o600)).To(Succeed())

			plan := &credentials.Plan{
				Directory:     dir,
				RelocateStale: true,
				Writes:        []credentials.FileWrite{{Path: filepath.Join(dir, credentials.OAuth1FileName), Data: []byte(`{}`)}},
			}

			notices, err := store.Apply(plan)
			Expect(err).NotTo(HaveOccurred())

			var relocated *srvErrors.StaleArtifactRelocated
			for _, n := range notices {
				if r, ok := n.(*srvErrors.StaleArtifactRelocated); ok {
					relocated = r
				}
			}
			Expect(relocated).NotTo(BeNil())
			Expect(relocated.To).To(Equal(dir + ".stale.bak.1"))

			backup, err := os.ReadFile(dir + ".stale.bak.1")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(backup)).To(Equal("stale"))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})
	})
})
