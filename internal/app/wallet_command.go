package app

import "github.com/spf13/cobra"

func (s *runtimeState) newWalletCommand() *cobra.Command {
	root := &cobra.Command{Use: "wallet", Short: "Inspect the mock wallet"}

	root.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the wallet without connecting",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.newSession(false)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), sess.Wallet().Info(), nil)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "connect",
		Short: "Run the mock connect handshake and show the connected wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.newSession(false)
			if err != nil {
				return err
			}
			info, err := sess.ConnectWallet(cmd.Context())
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), info, nil)
		},
	})
	return root
}
