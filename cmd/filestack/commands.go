package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/filestack-go/pkg/filestack"
	"github.com/tendant/filestack-go/pkg/filestack/security"
	"github.com/tendant/filestack-go/pkg/filestack/transform"
)

// NewURLCommand creates the url command
func NewURLCommand() *cobra.Command {
	var options []string
	var sign bool

	cmd := &cobra.Command{
		Use:   "url <action>",
		Short: "Print the request URL for an action",
		Long: `Print the request URL for delete, overwrite, transform or upload.

Options are passed as key=value pairs and keep their order:

  filestack url upload -o filename=a.png -o location=gcs
  filestack url transform -o tasks_str=resize=w:100 -o handle=abc --sign`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := filestack.ParseAction(args[0])
			if err != nil {
				return err
			}

			opts, err := parseOptions(options)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var signer filestack.Signer
			if sign {
				if !cfg.SigningEnabled() {
					return errors.New("--sign requires FILESTACK_SECRET")
				}
				sec, err := cfg.Security(security.CallsFor(action), opts.Normalize().Get(filestack.OptHandle))
				if err != nil {
					return err
				}
				signer = sec
			}

			u, err := cfg.URLBuilder().CreateURL(action, cfg.APIKey, opts, signer)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "option as key=value (repeatable)")
	cmd.Flags().BoolVar(&sign, "sign", false, "sign the URL with a policy scoped to the action")

	return cmd
}

// NewUploadCommand creates the upload command
func NewUploadCommand() *cobra.Command {
	var filename, mimetype, location, path, container, access string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to Filestack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]

			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			if filename == "" {
				filename = filepath.Base(filePath)
			}
			if mimetype == "" {
				// Parameters such as "; charset=utf-8" would break the query string.
				if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(filepath.Ext(filePath))); err == nil {
					mimetype = mt
				}
			}

			opts := filestack.Options{}.With(filestack.OptFilename, filename)
			if mimetype != "" {
				opts = opts.With(filestack.OptMimetype, mimetype)
			}
			if location != "" {
				opts = opts.With(filestack.OptLocation, location)
			}
			if path != "" {
				opts = opts.With(filestack.OptPath, path)
			}
			if container != "" {
				opts = opts.With(filestack.OptContainer, container)
			}
			if access != "" {
				opts = opts.With(filestack.OptAccess, access)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := cfg.BuildClient(newLogger(cmd), security.CallStore)
			if err != nil {
				return err
			}

			link, err := client.Upload(cmd.Context(), f, opts)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Handle: %s\n", link.Handle)
			fmt.Fprintf(out, "URL: %s\n", link.URL)
			fmt.Fprintf(out, "Size: %d\n", link.Size)
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "stored file name (default: base name of <file>)")
	cmd.Flags().StringVar(&mimetype, "mimetype", "", "MIME type (default: from extension)")
	cmd.Flags().StringVar(&location, "location", "", "storage location (default: S3)")
	cmd.Flags().StringVar(&path, "path", "", "storage path")
	cmd.Flags().StringVar(&container, "container", "", "storage container")
	cmd.Flags().StringVar(&access, "access", "", "access level: public or private")

	return cmd
}

// NewOverwriteCommand creates the overwrite command
func NewOverwriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overwrite <handle> <file>",
		Short: "Replace the content of a stored file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := cfg.BuildClient(newLogger(cmd), security.CallWrite)
			if err != nil {
				return err
			}

			link, err := client.Overwrite(cmd.Context(), args[0], f)
			if err != nil {
				return fmt.Errorf("overwrite failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Overwrote %s (%d bytes)\n", args[0], link.Size)
			return nil
		},
	}
}

// NewDeleteCommand creates the delete command
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <handle>",
		Short: "Delete a stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := cfg.BuildClient(newLogger(cmd), security.CallRemove)
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// NewTransformCommand creates the transform command
func NewTransformCommand() *cobra.Command {
	var taskArgs []string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "transform <handle>",
		Short: "Apply transformation tasks and download the result",
		Long: `Apply transformation tasks to a stored file and download the result.

  filestack transform abc --task resize=w:300,h:200 --task rotate=deg:90 -O thumb.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasksStr, err := buildTasks(taskArgs)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := cfg.BuildClient(newLogger(cmd), security.CallsFor(filestack.ActionTransform)...)
			if err != nil {
				return err
			}

			if outputPath == "" {
				if _, err := client.Transform(cmd.Context(), args[0], tasksStr, cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("transform failed: %w", err)
				}
				return nil
			}

			// The output file only appears once the whole result has been received.
			tmp, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".*")
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer os.Remove(tmp.Name())

			n, err := client.Transform(cmd.Context(), args[0], tasksStr, tmp)
			if closeErr := tmp.Close(); err == nil && closeErr != nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("transform failed: %w", err)
			}
			if err := os.Chmod(tmp.Name(), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			if err := os.Rename(tmp.Name(), outputPath); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", n, outputPath)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&taskArgs, "task", "t", nil, "task such as resize=w:300,h:200 (repeatable, applied in order)")
	cmd.Flags().StringVarP(&outputPath, "output", "O", "", "write the result to a file instead of stdout")
	cmd.MarkFlagRequired("task")

	return cmd
}

// NewPolicyCommand creates the policy command
func NewPolicyCommand() *cobra.Command {
	var calls []string
	var handle, path, container string
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Create a signed security policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.SigningEnabled() {
				return errors.New("policy requires FILESTACK_SECRET")
			}

			if expiresIn <= 0 {
				expiresIn = cfg.PolicyExpiry
			}
			opts := []security.Option{security.WithExpiresIn(expiresIn)}
			if len(calls) > 0 {
				opts = append(opts, security.WithCalls(calls...))
			}
			if handle != "" {
				opts = append(opts, security.WithHandle(handle))
			}
			if path != "" {
				opts = append(opts, security.WithPath(path))
			}
			if container != "" {
				opts = append(opts, security.WithContainer(container))
			}

			sec, err := security.New(cfg.Secret, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Policy: %s\n", sec.Policy())
			fmt.Fprintf(out, "Signature: %s\n", sec.Signature())
			fmt.Fprintf(out, "Expires: %s\n", sec.Decoded().ExpiresAt().UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&calls, "call", nil, "allowed calls, e.g. read,convert (default: all)")
	cmd.Flags().StringVar(&handle, "handle", "", "restrict to a file handle")
	cmd.Flags().StringVar(&path, "path", "", "restrict storage path")
	cmd.Flags().StringVar(&container, "container", "", "restrict storage container")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "policy lifetime (default: FILESTACK_POLICY_EXPIRY)")

	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the library version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), filestack.Version())
		},
	}
}

func parseOptions(pairs []string) (filestack.Options, error) {
	opts := make(filestack.Options, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q, expected key=value", pair)
		}
		opts = append(opts, filestack.Option{Key: key, Value: value})
	}
	return opts, nil
}

func buildTasks(args []string) (string, error) {
	var tasks []transform.Task
	for _, arg := range args {
		parsed, err := transform.Parse(arg)
		if err != nil {
			return "", err
		}
		tasks = append(tasks, parsed...)
	}
	return transform.Build(tasks...)
}
