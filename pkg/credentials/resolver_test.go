package credentials_test

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fitness-proxy/garmin-proxy/pkg/credentials"
	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

// noChmodFS rejects every permission change.
type noChmodFS struct {
	billy.Filesystem
}

func (noChmodFS) Chmod(string, os.FileMode) error {
	return errors.New("operation not permitted")
}

var _ = Describe("Resolver", func() {
	var (
		tmpDir string
		fs     billy.Filesystem
		layout credentials.Layout
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "resolver-test-*")
		Expect(err).NotTo(HaveOccurred())

		fs = osfs.New("/", osfs.WithBoundOS())
		layout = credentials.Layout{
			SingleFile: filepath.Join(tmpDir, "garmintokens.json"),
			TwoFileDir: filepath.Join(tmpDir, "garmin_tokens"),
		}
	})

	AfterEach(func() {
		if tmpDir != "" {
			os.RemoveAll(tmpDir)
		}
	})

	readFile := func(path string) string {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	Context("two-file environment input", func() {
		// Given OAUTH1_TOKEN_JSON and OAUTH2_TOKEN_JSON and no prior files
		// When we resolve
		// Then both documents are written verbatim and the directory is selected
		It("should write both documents and select the directory", func() {
			env := credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "OAUTH2_TOKEN_JSON": `{"b":2}`}

			target, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())

			Expect(target.Shape).To(Equal(credentials.ShapeTwoFile))
			Expect(target.Source).To(Equal(credentials.SourceEnvRawJSON))
			Expect(target.Location).To(Equal(layout.TwoFileDir))
			Expect(readFile(layout.OAuth1Path())).To(Equal(`{"a":1}`))
			Expect(readFile(layout.OAuth2Path())).To(Equal(`{"b":2}`))

			entries, err := os.ReadDir(layout.TwoFileDir)
			Expect(err).NotTo(HaveOccurred())
			names := []string{}
			for _, e := range entries {
				names = append(names, e.Name())
			}
			Expect(names).To(ConsistOf(credentials.OAuth1FileName, credentials.OAuth2FileName))
		})

		It("should fail when one of the two documents is invalid", func() {
			env := credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "OAUTH2_TOKEN_JSON": `{"b":`}

			_, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(srvErrors.IsInvalidCredentialFormatError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(layout.OAuth2Path()))
		})

		It("should not fall back to a valid single file once materialization started", func() {
			Expect(os.WriteFile(layout.SingleFile, []byte(`{"ok":true}`), 0o600)).To(Succeed())
			env := credentials.Environment{"OAUTH1_TOKEN_JSON": `not-json`, "OAUTH2_TOKEN_JSON": `{"b":2}`}

			_, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(srvErrors.IsInvalidCredentialFormatError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(layout.OAuth1Path()))
		})

		// Given a plain file left at the token directory path by an earlier run
		// When two-file environment input is supplied
		// Then the file is moved aside and the directory is created
		It("should relocate a stale file occupying the directory path", func() {
			Expect(os.WriteFile(layout.TwoFileDir, []byte(`{"legacy":true}`), 0o600)).To(Succeed())
			env := credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "OAUTH2_TOKEN_JSON": `{"b":2}`}

			target, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(target.Shape).To(Equal(credentials.ShapeTwoFile))

			Expect(readFile(layout.TwoFileDir + ".stale.bak")).To(Equal(`{"legacy":true}`))
			Expect(readFile(layout.OAuth1Path())).To(Equal(`{"a":1}`))

			relocated := false
			for _, n := range target.Notices {
				if srvErrors.IsStaleArtifactRelocated(n) {
					relocated = true
				}
			}
			Expect(relocated).To(BeTrue())
		})
	})

	Context("single-file environment input", func() {
		It("should write raw json verbatim", func() {
			raw := `{"oauth1": {"token": "t"}, "oauth2": {"access_token": "x"}}`
			env := credentials.Environment{"GARMINTOKENS_JSON": raw}

			target, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(target.Shape).To(Equal(credentials.ShapeSingleFile))
			Expect(target.Source).To(Equal(credentials.SourceEnvRawJSON))
			Expect(target.Location).To(Equal(layout.SingleFile))
			Expect(readFile(layout.SingleFile)).To(Equal(raw))
		})

		It("should write decoded base64 content", func() {
			env := credentials.Environment{"GARMINTOKENS_B64": base64.StdEncoding.EncodeToString([]byte(`{"x":true}`))}

			target, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(target.Shape).To(Equal(credentials.ShapeSingleFile))
			Expect(target.Source).To(Equal(credentials.SourceEnvBase64JSON))
			Expect(readFile(layout.SingleFile)).To(Equal(`{"x":true}`))
		})

		It("should fail on invalid raw json and name the file", func() {
			env := credentials.Environment{"GARMINTOKENS_JSON": "not-json"}

			_, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(srvErrors.IsInvalidCredentialFormatError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(layout.SingleFile))
		})

		It("should honor GARMINTOKENS_PATH", func() {
			custom := filepath.Join(tmpDir, "custom", "tokens.json")
			env := credentials.Environment{"GARMINTOKENS_JSON": `{}`, "GARMINTOKENS_PATH": custom}

			target, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(target.Location).To(Equal(custom))
			Expect(readFile(custom)).To(Equal(`{}`))
		})

		It("should restrict permissions to the owner", func() {
			env := credentials.Environment{"GARMINTOKENS_JSON": `{}`}

			_, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(layout.SingleFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
		})

		It("should only warn when permissions cannot be restricted", func() {
			env := credentials.Environment{"GARMINTOKENS_JSON": `{}`}

			target, err := credentials.NewResolver(noChmodFS{fs}, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())

			warned := false
			for _, n := range target.Notices {
				if srvErrors.IsPermissionRestrictionWarning(n) {
					warned = true
				}
			}
			Expect(warned).To(BeTrue())
		})
	})

	Context("files on disk", func() {
		It("should reuse an existing single file", func() {
			Expect(os.WriteFile(layout.SingleFile, []byte(`{"saved":1}`), 0o600)).To(Succeed())

			target, err := credentials.NewResolver(fs, layout, credentials.Environment{}).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(target.Source).To(Equal(credentials.SourceExistingOnDisk))
			Expect(target.Shape).To(Equal(credentials.ShapeSingleFile))
		})

		It("should reuse an existing two-file directory", func() {
			Expect(os.MkdirAll(layout.TwoFileDir, 0o700)).To(Succeed())
			Expect(os.WriteFile(layout.OAuth1Path(), []byte(`{}`), 0o600)).To(Succeed())
			Expect(os.WriteFile(layout.OAuth2Path(), []byte(`{}`), 0o600)).To(Succeed())

			target, err := credentials.NewResolver(fs, layout, credentials.Environment{}).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(target.Shape).To(Equal(credentials.ShapeTwoFile))
			Expect(target.Source).To(Equal(credentials.SourceExistingOnDisk))
		})

		It("should fail when a reused document is corrupt", func() {
			Expect(os.WriteFile(layout.SingleFile, []byte(`{"saved":`), 0o600)).To(Succeed())

			_, err := credentials.NewResolver(fs, layout, credentials.Environment{}).Resolve()
			Expect(srvErrors.IsInvalidCredentialFormatError(err)).To(BeTrue())
		})
	})

	DescribeTable("malformed single-file documents",
		func(raw string) {
			env := credentials.Environment{"GARMINTOKENS_JSON": raw}

			_, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(srvErrors.IsInvalidCredentialFormatError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(layout.SingleFile))
		},
		Entry("number with a leading zero", `{"a":01}`),
		Entry("raw control character in a string", "{\"a\":\"\x01\"}"),
		Entry("number without fraction digits", `1.`),
		Entry("truncated object", `{"a":`),
	)

	Context("relative locations", func() {
		BeforeEach(func() {
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() {
				Expect(os.Chdir(wd)).To(Succeed())
			})
		})

		It("should write a relative GARMINTOKENS_PATH under the working directory", func() {
			env := credentials.Environment{"GARMINTOKENS_PATH": "rel_tokens.json", "GARMINTOKENS_JSON": `{"c":3}`}

			target, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.IsAbs(target.Location)).To(BeTrue())
			Expect(filepath.Base(target.Location)).To(Equal("rel_tokens.json"))
			Expect(target.Files).To(Equal([]string{target.Location}))

			Expect(readFile(filepath.Join(tmpDir, "rel_tokens.json"))).To(Equal(`{"c":3}`))
		})

		It("should resolve a relative two-file directory", func() {
			relLayout := credentials.Layout{SingleFile: "missing.json", TwoFileDir: "tokens"}
			env := credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "OAUTH2_TOKEN_JSON": `{"b":2}`}

			target, err := credentials.NewResolver(fs, relLayout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.IsAbs(target.Location)).To(BeTrue())
			Expect(readFile(filepath.Join(tmpDir, "tokens", credentials.OAuth2FileName))).To(Equal(`{"b":2}`))
		})
	})

	Context("nothing available", func() {
		It("should fail with MissingCredentialsError and create nothing", func() {
			_, err := credentials.NewResolver(fs, layout, credentials.Environment{}).Resolve()
			Expect(srvErrors.IsMissingCredentialsError(err)).To(BeTrue())

			entries, err := os.ReadDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Context("idempotence", func() {
		It("should produce identical files when run twice with the same input", func() {
			env := credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "OAUTH2_TOKEN_JSON": `{"b":2}`}

			_, err := credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			first1, first2 := readFile(layout.OAuth1Path()), readFile(layout.OAuth2Path())

			_, err = credentials.NewResolver(fs, layout, env).Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(readFile(layout.OAuth1Path())).To(Equal(first1))
			Expect(readFile(layout.OAuth2Path())).To(Equal(first2))
		})
	})

	Context("Plan", func() {
		It("should not touch the filesystem", func() {
			env := credentials.Environment{"GARMINTOKENS_JSON": `{}`}

			plan, err := credentials.NewResolver(fs, layout, env).Plan()
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Materializes()).To(BeTrue())

			_, err = os.Stat(layout.SingleFile)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})
