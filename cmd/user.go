package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/logger"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const minPasswordLength = 6

// userCmd 用户管理命令
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "用户管理命令",
	Long:  `用户管理相关的命令，包括创建管理员、列出用户、重置密码等`,
}

// createAdminCmd 交互式创建管理员
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "创建管理员用户",
	Long:  `交互式创建管理员用户`,
	Run: func(cmd *cobra.Command, args []string) {
		createAdminUser()
	},
}

var adminFlags struct {
	username string
	email    string
	password string
}

// ensureAdminCmd 非交互式确保管理员存在，适用于部署脚本
var ensureAdminCmd = &cobra.Command{
	Use:   "ensure-admin",
	Short: "确保管理员账号存在",
	Long:  `管理员不存在时创建，已存在时提升为管理员并重置密码`,
	Run: func(cmd *cobra.Command, args []string) {
		ensureAdmin()
	},
}

// listUsersCmd 列出用户命令
var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "列出用户",
	Long:  `列出系统中的用户`,
	Run: func(cmd *cobra.Command, args []string) {
		listUsers()
	},
}

// resetPasswordCmd 重置用户密码命令
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [username]",
	Short: "重置用户密码",
	Long:  `重置指定用户的密码`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resetUserPassword(args[0])
	},
}

func init() {
	ensureAdminCmd.Flags().StringVar(&adminFlags.username, "username", "admin", "管理员用户名")
	ensureAdminCmd.Flags().StringVar(&adminFlags.email, "email", "admin@example.com", "管理员邮箱")
	ensureAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "管理员密码，为空时读取环境变量 BLOG_ADMIN_PASSWORD")

	userCmd.AddCommand(createAdminCmd)
	userCmd.AddCommand(ensureAdminCmd)
	userCmd.AddCommand(listUsersCmd)
	userCmd.AddCommand(resetPasswordCmd)

	rootCmd.AddCommand(userCmd)
}

// newUserService 命令行使用的用户服务，不依赖Redis
func newUserService() *service.UserService {
	db, err := initializeSystem()
	if err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}
	tokens := auth.NewManager(config.GetConfig().JWT, nil)
	return service.NewUserService(db, tokens, nil, logger.GetSugaredLogger())
}

// readPassword 读取并确认密码，不回显
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}

	fmt.Print("请确认密码: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取确认密码失败: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("两次输入的密码不一致")
	}
	if len(first) < minPasswordLength {
		return "", fmt.Errorf("密码长度不能小于%d", minPasswordLength)
	}
	return string(first), nil
}

// createAdminUser 创建管理员用户
func createAdminUser() {
	users := newUserService()
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("请输入管理员用户名: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("请输入管理员邮箱: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	if username == "" || email == "" {
		fmt.Println("用户名和邮箱不能为空")
		return
	}

	password, err := readPassword("请输入管理员密码: ")
	if err != nil {
		fmt.Println(err)
		return
	}

	user, err := users.CreateUser(context.Background(), username, email, password, model.RoleAdmin)
	if err != nil {
		fmt.Printf("创建管理员失败: %v\n", err)
		return
	}
	fmt.Printf("管理员创建成功，ID: %d\n", user.ID)
}

// ensureAdmin 确保管理员存在
func ensureAdmin() {
	password := adminFlags.password
	if password == "" {
		password = os.Getenv("BLOG_ADMIN_PASSWORD")
	}
	if len(password) < minPasswordLength {
		fmt.Printf("请通过 --password 或 BLOG_ADMIN_PASSWORD 提供不少于%d位的密码\n", minPasswordLength)
		os.Exit(1)
	}

	users := newUserService()
	created, err := users.EnsureAdmin(context.Background(), adminFlags.username, adminFlags.email, password)
	if err != nil {
		fmt.Printf("设置管理员失败: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("已创建管理员 %s\n", adminFlags.username)
		return
	}
	fmt.Printf("管理员 %s 已存在，已更新角色与密码\n", adminFlags.username)
}

// listUsers 列出用户
func listUsers() {
	users := newUserService()

	list, err := users.ListUsers(context.Background())
	if err != nil {
		fmt.Printf("查询用户失败: %v\n", err)
		return
	}

	fmt.Printf("%-6s %-20s %-30s %-8s %-20s\n", "ID", "用户名", "邮箱", "角色", "创建时间")
	fmt.Println(strings.Repeat("-", 90))
	for _, u := range list {
		fmt.Printf("%-6d %-20s %-30s %-8s %-20s\n", u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("共 %d 个用户\n", len(list))
}

// resetUserPassword 重置用户密码
func resetUserPassword(username string) {
	users := newUserService()

	password, err := readPassword(fmt.Sprintf("请输入用户 %s 的新密码: ", username))
	if err != nil {
		fmt.Println(err)
		return
	}

	if err := users.ResetPassword(context.Background(), username, password); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fmt.Printf("用户 %s 不存在\n", username)
			return
		}
		fmt.Printf("重置密码失败: %v\n", err)
		return
	}
	fmt.Println("密码重置成功")
}
