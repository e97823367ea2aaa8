package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/dlmm-orders/internal/api"
	"github.com/wonny/dlmm-orders/internal/wallet"
)

// walletCmd represents the wallet command
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "지갑 키 관리",
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "새 ed25519 키페어 생성",
	Long: `새 서명 키페어를 생성하고 .env에 넣을 값을 출력합니다.

비밀키는 화면에만 출력되며 어디에도 저장되지 않습니다.

Example:
  go run ./cmd/dlmm wallet new`,
	RunE: runWalletNew,
}

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "API 토큰 관리",
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash [token]",
	Short: "API_TOKEN_HASH 값 생성",
	Long: `bearer 토큰의 bcrypt 해시를 출력합니다.
인자가 없으면 stdin 첫 줄을 토큰으로 사용합니다.

Example:
  go run ./cmd/dlmm token hash my-secret-token
  echo my-secret-token | go run ./cmd/dlmm token hash`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenHash,
}

func init() {
	rootCmd.AddCommand(walletCmd, tokenCmd)
	walletCmd.AddCommand(walletNewCmd)
	tokenCmd.AddCommand(tokenHashCmd)
}

func runWalletNew(cmd *cobra.Command, args []string) error {
	signer, secret, err := wallet.GenerateKeypair()
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	PrintSuccess("Keypair generated")
	fmt.Printf("WALLET_PUBLIC_KEY=%s\n", signer.PublicKey())
	fmt.Printf("WALLET_SECRET_KEY=%s\n", secret)
	PrintWarning("Store the secret key safely; it cannot be recovered")
	return nil
}

func runTokenHash(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	hash, err := api.HashToken(token)
	if err != nil {
		return err
	}
	fmt.Printf("API_TOKEN_HASH=%s\n", hash)
	return nil
}
