package credentials_test

import (
	"encoding/base64"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fitness-proxy/garmin-proxy/pkg/credentials"
	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

var _ = Describe("NewPlan", func() {
	var layout credentials.Layout

	BeforeEach(func() {
		layout = credentials.Layout{
			SingleFile: "/data/garmintokens.json",
			TwoFileDir: "/data/garmin_tokens",
		}
	})

	DescribeTable("source priority",
		func(env credentials.Environment, snap credentials.Snapshot, shape credentials.Shape, source credentials.Source, location string) {
			plan, err := credentials.NewPlan(env, layout, snap)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Shape).To(Equal(shape))
			Expect(plan.Source).To(Equal(source))
			Expect(plan.Location).To(Equal(location))
		},
		Entry("two-file env beats everything",
			credentials.Environment{
				"OAUTH1_TOKEN_JSON": `{"a":1}`,
				"OAUTH2_TOKEN_JSON": `{"b":2}`,
				"GARMINTOKENS_JSON": `{"c":3}`,
				"GARMINTOKENS_B64":  "e30=",
			},
			credentials.Snapshot{SingleFile: credentials.EntryFile},
			credentials.ShapeTwoFile, credentials.SourceEnvRawJSON, "/data/garmin_tokens"),
		Entry("raw json beats base64",
			credentials.Environment{"GARMINTOKENS_JSON": `{"c":3}`, "GARMINTOKENS_B64": "e30="},
			credentials.Snapshot{},
			credentials.ShapeSingleFile, credentials.SourceEnvRawJSON, "/data/garmintokens.json"),
		Entry("base64 beats files on disk",
			credentials.Environment{"GARMINTOKENS_B64": "e30="},
			credentials.Snapshot{TwoFileDir: credentials.EntryDir, OAuth1: credentials.EntryFile, OAuth2: credentials.EntryFile},
			credentials.ShapeSingleFile, credentials.SourceEnvBase64JSON, "/data/garmintokens.json"),
		Entry("existing single file beats existing directory",
			credentials.Environment{},
			credentials.Snapshot{SingleFile: credentials.EntryFile, TwoFileDir: credentials.EntryDir, OAuth1: credentials.EntryFile, OAuth2: credentials.EntryFile},
			credentials.ShapeSingleFile, credentials.SourceExistingOnDisk, "/data/garmintokens.json"),
		Entry("existing two-file directory",
			credentials.Environment{},
			credentials.Snapshot{TwoFileDir: credentials.EntryDir, OAuth1: credentials.EntryFile, OAuth2: credentials.EntryFile},
			credentials.ShapeTwoFile, credentials.SourceExistingOnDisk, "/data/garmin_tokens"),
		Entry("half-set two-file env falls through to raw json",
			credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "GARMINTOKENS_JSON": `{"c":3}`},
			credentials.Snapshot{},
			credentials.ShapeSingleFile, credentials.SourceEnvRawJSON, "/data/garmintokens.json"),
	)

	It("should fail with MissingCredentialsError when nothing is available", func() {
		_, err := credentials.NewPlan(credentials.Environment{}, layout, credentials.Snapshot{})
		Expect(err).To(HaveOccurred())
		Expect(srvErrors.IsMissingCredentialsError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("OAUTH1_TOKEN_JSON"))
		Expect(err.Error()).To(ContainSubstring("/data/garmintokens.json"))
	})

	It("should not reuse a directory holding only one of the two documents", func() {
		snap := credentials.Snapshot{TwoFileDir: credentials.EntryDir, OAuth1: credentials.EntryFile}
		_, err := credentials.NewPlan(credentials.Environment{}, layout, snap)
		Expect(srvErrors.IsMissingCredentialsError(err)).To(BeTrue())
	})

	It("should treat whitespace-only variables as unset", func() {
		env := credentials.Environment{"OAUTH1_TOKEN_JSON": "  ", "OAUTH2_TOKEN_JSON": "\n", "GARMINTOKENS_JSON": " "}
		_, err := credentials.NewPlan(env, layout, credentials.Snapshot{})
		Expect(srvErrors.IsMissingCredentialsError(err)).To(BeTrue())
	})

	It("should carry the two documents verbatim as writes", func() {
		env := credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "OAUTH2_TOKEN_JSON": `{"b":2}`}
		plan, err := credentials.NewPlan(env, layout, credentials.Snapshot{})
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.Writes).To(Equal([]credentials.FileWrite{
			{Path: "/data/garmin_tokens/oauth1_token.json", Data: []byte(`{"a":1}`)},
			{Path: "/data/garmin_tokens/oauth2_token.json", Data: []byte(`{"b":2}`)},
		}))
		Expect(plan.Directory).To(Equal("/data/garmin_tokens"))
		Expect(plan.RelocateStale).To(BeFalse())
	})

	It("should flag a plain file occupying the token directory", func() {
		env := credentials.Environment{"OAUTH1_TOKEN_JSON": `{"a":1}`, "OAUTH2_TOKEN_JSON": `{"b":2}`}
		plan, err := credentials.NewPlan(env, layout, credentials.Snapshot{TwoFileDir: credentials.EntryFile})
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.RelocateStale).To(BeTrue())
	})

	It("should warn about a half-set two-file environment", func() {
		env := credentials.Environment{"OAUTH2_TOKEN_JSON": `{"b":2}`, "GARMINTOKENS_JSON": `{}`}
		plan, err := credentials.NewPlan(env, layout, credentials.Snapshot{})
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.Notices).To(HaveLen(1))
		Expect(plan.Notices[0].Error()).To(ContainSubstring("OAUTH1_TOKEN_JSON is empty"))
	})

	Context("base64 input", func() {
		It("should decode padded input", func() {
			encoded := base64.StdEncoding.EncodeToString([]byte(`{"x":true}`))
			plan, err := credentials.NewPlan(credentials.Environment{"GARMINTOKENS_B64": encoded}, layout, credentials.Snapshot{})
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Writes[0].Data).To(Equal([]byte(`{"x":true}`)))
		})

		It("should decode unpadded input split over lines", func() {
			encoded := base64.RawStdEncoding.EncodeToString([]byte(`{"x":true,"y":[1,2,3]}`))
			wrapped := encoded[:10] + "\n" + encoded[10:]
			plan, err := credentials.NewPlan(credentials.Environment{"GARMINTOKENS_B64": wrapped}, layout, credentials.Snapshot{})
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Writes[0].Data).To(Equal([]byte(`{"x":true,"y":[1,2,3]}`)))
		})

		It("should reject garbage and name the variable", func() {
			_, err := credentials.NewPlan(credentials.Environment{"GARMINTOKENS_B64": "%%%not-base64%%%"}, layout, credentials.Snapshot{})
			Expect(srvErrors.IsInvalidCredentialFormatError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("GARMINTOKENS_B64"))
		})
	})

	It("should refuse to write the single file over a directory", func() {
		_, err := credentials.NewPlan(credentials.Environment{"GARMINTOKENS_JSON": `{}`}, layout, credentials.Snapshot{SingleFile: credentials.EntryDir})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("is a directory"))
	})
})

var _ = Describe("Layout", func() {
	It("should apply the canonical path override", func() {
		layout, notices := credentials.DefaultLayout().WithEnvironment(credentials.Environment{"GARMINTOKENS_PATH": "/custom/tokens.json"})
		Expect(layout.SingleFile).To(Equal("/custom/tokens.json"))
		Expect(layout.TwoFileDir).To(Equal(credentials.DefaultTokensDir))
		Expect(notices).To(BeEmpty())
	})

	It("should accept the deprecated alias with a notice", func() {
		layout, notices := credentials.DefaultLayout().WithEnvironment(credentials.Environment{"garmintokens_path": "/alias/tokens.json"})
		Expect(layout.SingleFile).To(Equal("/alias/tokens.json"))
		Expect(notices).To(HaveLen(1))
		Expect(notices[0].Error()).To(ContainSubstring("deprecated"))
	})

	It("should prefer the canonical name when both are set", func() {
		layout, notices := credentials.DefaultLayout().WithEnvironment(credentials.Environment{
			"GARMINTOKENS_PATH": "/canonical.json",
			"garmintokens_path": "/alias.json",
		})
		Expect(layout.SingleFile).To(Equal("/canonical.json"))
		Expect(notices).To(HaveLen(1))
	})
})

var _ = Describe("Inspect", func() {
	It("should describe what occupies each path", func() {
		fs := memfs.New()
		Expect(util.WriteFile(fs, "/data/garmintokens.json", []byte(`{}`), 0o600)).To(Succeed())
		Expect(util.WriteFile(fs, "/data/garmin_tokens/oauth1_token.json", []byte(`{}`), 0o600)).To(Succeed())

		snap, err := credentials.Inspect(fs, credentials.DefaultLayout())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap).To(Equal(credentials.Snapshot{
			SingleFile: credentials.EntryFile,
			TwoFileDir: credentials.EntryDir,
			OAuth1:     credentials.EntryFile,
			OAuth2:     credentials.EntryAbsent,
		}))
	})

	It("should not look inside a token directory that is a plain file", func() {
		fs := memfs.New()
		Expect(util.WriteFile(fs, "/data/garmin_tokens", []byte("stale"), 0o600)).To(Succeed())

		snap, err := credentials.Inspect(fs, credentials.DefaultLayout())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.TwoFileDir).To(Equal(credentials.EntryFile))
		Expect(snap.OAuth1).To(Equal(credentials.EntryAbsent))
	})
})
