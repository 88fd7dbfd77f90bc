package main

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/reducers"
)

var identityCmd = &cobra.Command{Use: "identity", Short: "Identity commands"}

var identityRegisterCmd = &cobra.Command{
	Use:   "register --nonce <n>",
	Short: "Register the signing key's DID as an identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		did, pub, _, err := loadSigner()
		if err != nil {
			return err
		}
		nonce, _ := cmd.Flags().GetUint64("nonce")
		return submitCommand("identity.register", nonce, nil, reducers.IdentityRegisterPayload{
			DID: did, PublicKey: hex.EncodeToString(pub),
		})
	},
}

var identityRevokeCmd = &cobra.Command{
	Use:   "revoke --nonce <n>",
	Short: "Revoke the signing identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		nonce, _ := cmd.Flags().GetUint64("nonce")
		reason, _ := cmd.Flags().GetString("reason")
		return submitCommand("identity.revoke", nonce, nil, reducers.IdentityRevokePayload{Reason: reason})
	},
}

var identityAddCapabilityCmd = &cobra.Command{
	Use:   "add-capability <capability> --nonce <n>",
	Short: "Add a capability claim to the signing identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nonce, _ := cmd.Flags().GetUint64("nonce")
		return submitCommand("identity.capability.add", nonce, nil, reducers.IdentityCapabilityAddPayload{Capability: args[0]})
	},
}

var identityAddPlatformLinkCmd = &cobra.Command{
	Use:   "add-platform <platform> --nonce <n>",
	Short: "Link an external platform handle to the signing identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nonce, _ := cmd.Flags().GetUint64("nonce")
		return submitCommand("identity.platformLink.add", nonce, nil, reducers.IdentityPlatformLinkAddPayload{Platform: args[0]})
	},
}

var identityResolveCmd = &cobra.Command{
	Use:   "resolve <did>",
	Short: "Resolve an identity by DID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getQuery("/identity/" + args[0])
	},
}

func init() {
	identityRegisterCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	identityRevokeCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	identityRevokeCmd.Flags().String("reason", "", "optional reason")
	identityAddCapabilityCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")
	identityAddPlatformLinkCmd.Flags().Uint64("nonce", 0, "issuer nonce for this event")

	identityCmd.AddCommand(identityRegisterCmd, identityRevokeCmd, identityAddCapabilityCmd, identityAddPlatformLinkCmd, identityResolveCmd)
}
