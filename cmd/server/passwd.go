package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seecr/gmh-registration-service/internal/credential"
	credentialservice "github.com/seecr/gmh-registration-service/internal/credential/service"
	credentialstore "github.com/seecr/gmh-registration-service/internal/credential/store"
	"github.com/seecr/gmh-registration-service/internal/platform/logger"
)

func newPasswdCmd() *cobra.Command {
	var groupID, username string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set the login of a registrant",
		Long: `Sets the username and password of the registrant with the given group id,
creating the login when the registrant has none. The password is read from
standard input. An issued token stays valid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, cfg, err := openPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := credential.NewService(credentialstore.NewPostgres(db),
				credentialservice.WithLogger(logger.New(cfg.Log.Level, cfg.Log.Format)),
			)
			if err := svc.SetPassword(cmd.Context(), groupID, username, password); err != nil {
				return err
			}
			cmd.Printf("password set for %s (%s)\n", username, groupID)
			return nil
		},
	}
	cmd.Flags().StringVar(&groupID, "groupid", "", "group id of the registrant")
	cmd.Flags().StringVar(&username, "username", "", "login name")
	_ = cmd.MarkFlagRequired("groupid")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// readPassword reads one line from in. The prompt goes to out so it stays
// out of piped output.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}
