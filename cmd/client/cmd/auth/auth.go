package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AuthCmd - родительская команда для всех операций с авторизацией пользователя
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Управление пользователем",
	Long:  `Регистрация, вход, выход и статус сессии.`,
}

func promptEmail(preset string) (string, error) {
	if preset != "" {
		return strings.TrimSpace(preset), nil
	}

	fmt.Print("Email: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("ошибка чтения email: %w", err)
	}
	email := strings.TrimSpace(line)
	if email == "" {
		return "", fmt.Errorf("email не может быть пустым")
	}
	return email, nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(password), nil
}
